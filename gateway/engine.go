package gateway

import (
	"fmt"
	"net/http"

	"github.com/fedgraphql/gateway/federation/executor"
	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/fedgraphql/gateway/federation/planner"
)

// executionEngine bundles all read-only components required to serve GraphQL requests.
type executionEngine struct {
	planner    *planner.Planner
	executor   *executor.Executor
	superGraph *graph.SuperGraph
}

// schemaStore holds a set of raw SDLs, host URLs, and the engine built from them.
// No code path in this package constructs or reads a schemaStore.
type schemaStore struct {
	sdls   map[string]string // subgraph name → SDL string
	hosts  map[string]string // subgraph name → base URL
	engine *executionEngine
}

// buildEngine composes a new SuperGraph from the given SDLs and host map, then wraps it
// in an executionEngine together with a Planner and Executor.
// The order that subgraphs are processed follows the iteration order of sdls, which is
// non-deterministic in Go maps. Composition depends on that order where several
// subgraphs can resolve a field or define an entity (the first one wins), so
// those choices can differ between builds.
func buildEngine(sdls, hosts map[string]string, httpClient *http.Client) (*executionEngine, error) {
	subGraphs := make([]*graph.SubGraph, 0, len(sdls))
	for name, sdl := range sdls {
		sg, err := graph.NewSubGraph(name, []byte(sdl), hosts[name])
		if err != nil {
			return nil, fmt.Errorf("failed to build subgraph %q: %w", name, err)
		}
		subGraphs = append(subGraphs, sg)
	}

	superGraph, err := graph.NewSuperGraph(subGraphs)
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	return &executionEngine{
		planner:    planner.NewPlanner(superGraph),
		executor:   executor.NewExecutor(httpClient, superGraph),
		superGraph: superGraph,
	}, nil
}

// copyMap returns a shallow copy of a string map.
func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
