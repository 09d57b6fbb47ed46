package planner_test

import (
	"testing"

	"github.com/fedgraphql/gateway/federation/planner"
	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

// parseOperation parses a single-operation document and returns it along
// with its fragment table, ready to hand to planner.Plan.
func parseOperation(t *testing.T, query string) (*ast.OperationDefinition, map[string]*ast.FragmentDefinition) {
	t.Helper()

	l := lexer.New(query)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse error: %v", p.Errors())
	}

	var op *ast.OperationDefinition
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			op = d
		case *ast.FragmentDefinition:
			fragments[d.Name.String()] = d
		}
	}
	if op == nil {
		t.Fatalf("no operation definition found in query")
	}
	return op, fragments
}

// collectFetches walks a plan tree and returns every Fetch-kind node in
// left-to-right traversal order.
func collectFetches(node *planner.PlanNode) []*planner.PlanNode {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case planner.KindFetch:
		return []*planner.PlanNode{node}
	case planner.KindFlatten:
		return collectFetches(node.Child)
	case planner.KindSequence, planner.KindParallel:
		var out []*planner.PlanNode
		for _, child := range node.Children {
			out = append(out, collectFetches(child)...)
		}
		return out
	}
	return nil
}

