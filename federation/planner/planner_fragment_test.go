package planner_test

import (
	"strings"
	"testing"

	"github.com/fedgraphql/gateway/federation/planner"
)

// S6: with auto-fragmentization on, a composite subselection of more than
// two fields is hoisted into a generated fragment, reused once per distinct
// shape.
func TestPlanner_AutoFragmentization(t *testing.T) {
	products := mustSubGraph(t, "products", `
		type Product {
			id: ID!
			name: String!
			price: Float!
			description: String!
		}

		type Query {
			topProducts: [Product!]!
			featuredProducts: [Product!]!
		}
	`)

	sg := mustSuperGraph(t, products)
	p := planner.NewPlanner(sg)

	op, fragments := parseOperation(t, `{
		topProducts { id name price description }
		featuredProducts { id name price description }
	}`)

	plan, err := p.Plan(op, fragments, planner.BuildQueryPlanOptions{AutoFragmentization: true})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.Node.Kind != planner.KindFetch {
		t.Fatalf("expected single Fetch, got kind %v", plan.Node.Kind)
	}

	if !strings.Contains(plan.Node.Operation, "fragment __QueryPlanFragment_0 on Product") {
		t.Errorf("expected a generated fragment definition, got %q", plan.Node.Operation)
	}
	if !strings.Contains(plan.Node.Operation, "...__QueryPlanFragment_0") {
		t.Errorf("expected the selection to spread the generated fragment, got %q", plan.Node.Operation)
	}
	if strings.Count(plan.Node.Operation, "fragment __QueryPlanFragment_0 on Product") != 1 {
		t.Errorf("expected the reused shape to emit only one fragment definition, got operation %q", plan.Node.Operation)
	}
}

func TestPlanner_FragmentSpreadVisitedOnce(t *testing.T) {
	accounts := mustSubGraph(t, "accounts", `
		type User {
			id: ID!
			name: String!
		}

		type Query {
			me: User
		}
	`)

	sg := mustSuperGraph(t, accounts)
	p := planner.NewPlanner(sg)

	op, fragments := parseOperation(t, `
		{ me { ...fields ...fields } }
		fragment fields on User { id name }
	`)

	plan, err := p.Plan(op, fragments, planner.BuildQueryPlanOptions{})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if strings.Count(plan.Node.Operation, "id") != 1 {
		t.Errorf("expected the fragment to be expanded only once despite being spread twice, got %q", plan.Node.Operation)
	}
}
