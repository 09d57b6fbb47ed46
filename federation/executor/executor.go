package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/fedgraphql/gateway/federation/planner"
	"golang.org/x/sync/errgroup"
)

// GraphQLError represents a GraphQL error with path information.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Executor executes a query plan by orchestrating requests to subgraphs.
type Executor struct {
	httpClient *http.Client
	superGraph *graph.SuperGraph
}

// NewExecutor creates a new Executor instance.
func NewExecutor(httpClient *http.Client, superGraph *graph.SuperGraph) *Executor {
	return &Executor{
		httpClient: httpClient,
		superGraph: superGraph,
	}
}

// execState carries the mutable state threaded through a single Execute call.
type execState struct {
	ctx       context.Context
	variables map[string]interface{}
	mu        sync.Mutex
	errors    []GraphQLError
}

func (s *execState) recordError(err error, path []interface{}, serviceName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, GraphQLError{
		Message:    err.Error(),
		Path:       path,
		Extensions: map[string]interface{}{"serviceName": serviceName},
	})
}

func (s *execState) recordSubgraphErrors(raw interface{}, basePath []interface{}, serviceName string) {
	errList, ok := raw.([]interface{})
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range errList {
		errMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		message, _ := errMap["message"].(string)
		if message == "" {
			message = "unknown error from subgraph"
		}
		path := append([]interface{}{}, basePath...)
		if errPath, ok := errMap["path"].([]interface{}); ok {
			path = append(path, errPath...)
		}
		extensions := map[string]interface{}{"serviceName": serviceName}
		if ext, ok := errMap["extensions"].(map[string]interface{}); ok {
			for k, v := range ext {
				extensions[k] = v
			}
		}
		s.errors = append(s.errors, GraphQLError{Message: message, Path: path, Extensions: extensions})
	}
}

// Execute runs a query plan against the subgraphs it names and returns a
// merged GraphQL response. Subgraph and merge errors are recorded and
// surfaced alongside whatever partial data resolved successfully; Execute
// itself only returns an error when the plan is structurally unusable.
func (e *Executor) Execute(
	ctx context.Context,
	plan *planner.QueryPlan,
	variables map[string]interface{},
) (map[string]interface{}, error) {
	if plan == nil || plan.Node == nil {
		return nil, fmt.Errorf("query plan has no root node")
	}

	state := &execState{ctx: ctx, variables: variables}
	data := make(map[string]interface{})

	e.executeNode(state, plan.Node, data, nil)

	response := map[string]interface{}{"data": data}
	if len(state.errors) > 0 {
		response["errors"] = state.errors
	}
	return response, nil
}

// executeNode runs a single plan node, merging whatever it resolves into
// root (the accumulated top-level response data). path is the Flatten path
// active above this node, used only for error reporting.
func (e *Executor) executeNode(state *execState, node *planner.PlanNode, root map[string]interface{}, path []interface{}) {
	switch node.Kind {
	case planner.KindSequence:
		for _, child := range node.Children {
			e.executeNode(state, child, root, path)
		}

	case planner.KindParallel:
		eg, _ := errgroup.WithContext(state.ctx)
		for _, child := range node.Children {
			child := child
			eg.Go(func() error {
				e.executeNode(state, child, root, path)
				return nil
			})
		}
		_ = eg.Wait()

	case planner.KindFlatten:
		e.executeFlatten(state, node, root, path)

	case planner.KindFetch:
		e.executeRootFetch(state, node, root, path)
	}
}

// executeRootFetch runs a non-entity Fetch and merges its result's top-level
// fields directly into root.
func (e *Executor) executeRootFetch(state *execState, node *planner.PlanNode, root map[string]interface{}, path []interface{}) {
	vars := selectVariables(node.VariableUsages, state.variables)

	result, err := e.sendRequest(state.ctx, node.ServiceName, node.Operation, vars)
	if err != nil {
		state.recordError(err, path, node.ServiceName)
		return
	}
	if errs, ok := result["errors"]; ok && errs != nil {
		state.recordSubgraphErrors(errs, path, node.ServiceName)
	}

	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return
	}

	state.mu.Lock()
	for k, v := range data {
		root[k] = v
	}
	state.mu.Unlock()
}

// executeFlatten resolves the entities living at node.Path, fetches their
// missing fields from node.Child's subgraph, and merges the results back
// into those same entity objects in place.
func (e *Executor) executeFlatten(state *execState, node *planner.PlanNode, root map[string]interface{}, parentPath []interface{}) {
	child := node.Child
	if child == nil || child.Kind != planner.KindFetch {
		return
	}

	fullPath := append(append([]interface{}{}, parentPath...), stringsToInterfaces(node.Path)...)

	state.mu.Lock()
	entities := collectEntityMaps(root, node.Path)
	state.mu.Unlock()

	if len(entities) == 0 {
		return
	}

	if child.Requires == "" {
		// Non-entity fetch nested under a flatten path: it is sent once, with
		// no representations, and its top-level fields are merged into root
		// just like a root fetch; the objects found at the path are not used.
		e.executeRootFetch(state, child, root, fullPath)
		return
	}

	representations := make([]map[string]interface{}, 0, len(entities))
	state.mu.Lock()
	for _, ent := range entities {
		rep := make(map[string]interface{}, len(ent))
		for k, v := range ent {
			rep[k] = v
		}
		representations = append(representations, rep)
	}
	state.mu.Unlock()

	vars := selectVariables(child.VariableUsages, state.variables)
	vars["representations"] = representations

	result, err := e.sendRequest(state.ctx, child.ServiceName, child.Operation, vars)
	if err != nil {
		state.recordError(err, fullPath, child.ServiceName)
		return
	}
	if errs, ok := result["errors"]; ok && errs != nil {
		state.recordSubgraphErrors(errs, fullPath, child.ServiceName)
	}

	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return
	}
	resolved, ok := data["_entities"].([]interface{})
	if !ok {
		return
	}

	state.mu.Lock()
	for i, entity := range entities {
		if i >= len(resolved) {
			break
		}
		entityResult, ok := resolved[i].(map[string]interface{})
		if !ok {
			continue
		}
		for k, v := range entityResult {
			entity[k] = v
		}
	}
	state.mu.Unlock()
}

// collectEntityMaps walks root along path, treating "@" path segments as
// "descend into every element of the list found here", and returns every
// object reached at the end of the path in document order. Because Go maps
// are reference types, merging results back into these objects later needs
// no further path navigation.
func collectEntityMaps(val interface{}, path []string) []map[string]interface{} {
	if len(path) == 0 {
		switch v := val.(type) {
		case map[string]interface{}:
			return []map[string]interface{}{v}
		case []interface{}:
			out := make([]map[string]interface{}, 0, len(v))
			for _, item := range v {
				out = append(out, collectEntityMaps(item, nil)...)
			}
			return out
		default:
			return nil
		}
	}

	segment, rest := path[0], path[1:]

	if segment == "@" {
		arr, ok := val.([]interface{})
		if !ok {
			return nil
		}
		out := make([]map[string]interface{}, 0, len(arr))
		for _, item := range arr {
			out = append(out, collectEntityMaps(item, rest)...)
		}
		return out
	}

	m, ok := val.(map[string]interface{})
	if !ok {
		return nil
	}
	next, exists := m[segment]
	if !exists || next == nil {
		return nil
	}
	if arr, ok := next.([]interface{}); ok && (len(rest) == 0 || rest[0] != "@") {
		out := make([]map[string]interface{}, 0, len(arr))
		for _, item := range arr {
			out = append(out, collectEntityMaps(item, rest)...)
		}
		return out
	}
	return collectEntityMaps(next, rest)
}

func stringsToInterfaces(ss []string) []interface{} {
	out := make([]interface{}, 0, len(ss))
	for _, s := range ss {
		if s == "@" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// selectVariables returns the subset of variables a fetch node actually
// references, so a subgraph never receives variables meant for another one.
func selectVariables(names []string, all map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(names))
	for _, name := range names {
		if v, ok := all[name]; ok {
			out[name] = v
		}
	}
	return out
}

// sendRequest sends a GraphQL request to a named subgraph service.
func (e *Executor) sendRequest(
	ctx context.Context,
	serviceName string,
	query string,
	variables map[string]interface{},
) (map[string]interface{}, error) {
	subGraph := e.findSubGraph(serviceName)
	if subGraph == nil {
		return nil, fmt.Errorf("unknown subgraph %q", serviceName)
	}

	reqBody := map[string]interface{}{"query": query}
	if len(variables) > 0 {
		reqBody["variables"] = variables
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", subGraph.Host, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if header := GetRequestHeaderFromContext(ctx); header != nil {
		for k, values := range header {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result, nil
}

func (e *Executor) findSubGraph(name string) *graph.SubGraph {
	for _, sg := range e.superGraph.SubGraphs {
		if sg.Name == name {
			return sg
		}
	}
	return nil
}

type requestHeaderContextKey struct{}

// SetRequestHeaderToContext attaches the client request's headers to ctx so
// subgraph requests can forward them (auth tokens, tracing headers, etc).
func SetRequestHeaderToContext(ctx context.Context, header http.Header) context.Context {
	return context.WithValue(ctx, requestHeaderContextKey{}, header)
}

// GetRequestHeaderFromContext retrieves headers attached by
// SetRequestHeaderToContext, or nil if none were set.
func GetRequestHeaderFromContext(ctx context.Context) http.Header {
	h, _ := ctx.Value(requestHeaderContextKey{}).(http.Header)
	return h
}
