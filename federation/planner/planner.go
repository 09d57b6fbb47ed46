package planner

import (
	"fmt"

	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// BuildQueryPlanOptions controls optional planning behavior.
type BuildQueryPlanOptions struct {
	AutoFragmentization bool
}

// Planner turns a client operation into an executable QueryPlan against a
// composed SuperGraph.
type Planner struct {
	SuperGraph *graph.SuperGraph
}

// NewPlanner creates a Planner bound to a composed supergraph.
func NewPlanner(sg *graph.SuperGraph) *Planner {
	return &Planner{SuperGraph: sg}
}

// Plan builds a QueryPlan for a single validated operation. fragments is the
// operation document's name->definition table (nil or empty if the
// operation defines none).
func (p *Planner) Plan(op *ast.OperationDefinition, fragments map[string]*ast.FragmentDefinition, options BuildQueryPlanOptions) (*QueryPlan, error) {
	if op.Operation == ast.Subscription {
		return nil, &PlanError{Message: "subscription operations are not supported by query planning"}
	}
	if fragments == nil {
		fragments = map[string]*ast.FragmentDefinition{}
	}

	ctx := newContext(fragments)
	rootTypeName := p.SuperGraph.RootTypeName(op.Operation)
	rootScope := ctx.scopeFor(rootTypeName, []string{rootTypeName}, nil)

	var rootFields FieldSet
	visited := make(map[string]bool)
	if err := collectFields(ctx, p.SuperGraph, rootScope, op.SelectionSet, fragments, visited, &rootFields); err != nil {
		return nil, err
	}

	var rootGroups []*FetchGroup
	var route groupForField
	if op.Operation == ast.Mutation {
		route = rootMutationRoute(p.SuperGraph, rootTypeName, &rootGroups)
	} else {
		groupsByService := make(map[string]*FetchGroup)
		route = rootQueryRoute(p.SuperGraph, rootTypeName, groupsByService, &rootGroups)
	}

	if err := splitFields(ctx, p.SuperGraph, rootFields, route, options.AutoFragmentization); err != nil {
		return nil, err
	}

	if len(rootGroups) == 0 {
		return nil, &PlanError{Message: "operation has no fields resolvable by any subgraph"}
	}

	nodes := make([]*PlanNode, 0, len(rootGroups))
	for _, g := range rootGroups {
		node, err := executionNodeForGroup(ctx, p.SuperGraph, g, op.Operation)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	var root *PlanNode
	if op.Operation == ast.Mutation {
		root = sequenceNode(nodes)
	} else {
		root = flatWrap(KindParallel, nodes)
	}

	return &QueryPlan{Node: root}, nil
}

// rootQueryRoute routes root query fields to one group per owning
// subgraph, shared across all root fields (§4.2 "Root, query").
func rootQueryRoute(sg *graph.SuperGraph, rootTypeName string, groupsByService map[string]*FetchGroup, order *[]*FetchGroup) groupForField {
	return func(f *Field) (*FetchGroup, error) {
		service, ok := sg.OwningService(rootTypeName, f.FieldName())
		if !ok {
			return nil, &PlanError{Message: fmt.Sprintf("owning service unresolvable for %s.%s", rootTypeName, f.FieldName())}
		}
		if g, ok := groupsByService[service]; ok {
			return g, nil
		}
		g := newFetchGroup(service, nil)
		groupsByService[service] = g
		*order = append(*order, g)
		return g, nil
	}
}

// rootMutationRoute routes root mutation fields into an ordered list of
// groups: a field either extends the last group when it shares its
// subgraph, or starts a new one (§4.2 "Root, mutation").
func rootMutationRoute(sg *graph.SuperGraph, rootTypeName string, groups *[]*FetchGroup) groupForField {
	return func(f *Field) (*FetchGroup, error) {
		service, ok := sg.OwningService(rootTypeName, f.FieldName())
		if !ok {
			return nil, &PlanError{Message: fmt.Sprintf("owning service unresolvable for %s.%s", rootTypeName, f.FieldName())}
		}
		if n := len(*groups); n > 0 && (*groups)[n-1].ServiceName == service {
			return (*groups)[n-1], nil
		}
		g := newFetchGroup(service, nil)
		*groups = append(*groups, g)
		return g, nil
	}
}
