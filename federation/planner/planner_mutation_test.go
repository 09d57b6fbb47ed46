package planner_test

import (
	"testing"

	"github.com/fedgraphql/gateway/federation/planner"
)

// S4: mutation root fields batch into an ordered Sequence, with adjacent
// same-subgraph fields coalescing into a single Fetch.
func TestPlanner_MutationBatching(t *testing.T) {
	reviews := mustSubGraph(t, "reviews", `
		type Mutation {
			a: String
			b: String
			d: String
		}
	`)
	accounts := mustSubGraph(t, "accounts", `
		type Mutation {
			c: String
		}
	`)

	sg := mustSuperGraph(t, reviews, accounts)
	p := planner.NewPlanner(sg)

	op, fragments := parseOperation(t, `mutation { a b c d }`)

	plan, err := p.Plan(op, fragments, planner.BuildQueryPlanOptions{})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.Node.Kind != planner.KindSequence {
		t.Fatalf("expected Sequence root, got kind %v", plan.Node.Kind)
	}
	if len(plan.Node.Children) != 3 {
		t.Fatalf("expected 3 fetches in sequence, got %d", len(plan.Node.Children))
	}

	wantServices := []string{"reviews", "accounts", "reviews"}
	for i, child := range plan.Node.Children {
		if child.Kind != planner.KindFetch {
			t.Fatalf("child %d: expected Fetch, got kind %v", i, child.Kind)
		}
		if child.ServiceName != wantServices[i] {
			t.Errorf("child %d: expected service %s, got %s", i, wantServices[i], child.ServiceName)
		}
	}
}
