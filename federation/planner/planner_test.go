package planner_test

import (
	"strings"
	"testing"

	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/fedgraphql/gateway/federation/planner"
)

func mustSubGraph(t *testing.T, name, schema string) *graph.SubGraph {
	t.Helper()
	sg, err := graph.NewSubGraph(name, []byte(schema), "http://"+name+".example.com")
	if err != nil {
		t.Fatalf("NewSubGraph(%s) failed: %v", name, err)
	}
	return sg
}

func mustSuperGraph(t *testing.T, subgraphs ...*graph.SubGraph) *graph.SuperGraph {
	t.Helper()
	sg, err := graph.NewSuperGraph(subgraphs)
	if err != nil {
		t.Fatalf("NewSuperGraph failed: %v", err)
	}
	return sg
}

// S1: a single-field query resolved entirely by one subgraph plans to a
// single Fetch with no requires and no Sequence/Parallel wrapper.
func TestPlanner_SingleFieldQuery(t *testing.T) {
	accounts := mustSubGraph(t, "accounts", `
		type User @key(fields: "id") {
			id: ID!
			name: String!
		}

		type Query {
			me: User
		}
	`)

	sg := mustSuperGraph(t, accounts)
	p := planner.NewPlanner(sg)

	op, fragments := parseOperation(t, `{ me { id name } }`)

	plan, err := p.Plan(op, fragments, planner.BuildQueryPlanOptions{})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.Node.Kind != planner.KindFetch {
		t.Fatalf("expected a bare Fetch node, got kind %v", plan.Node.Kind)
	}
	if plan.Node.ServiceName != "accounts" {
		t.Errorf("expected service accounts, got %s", plan.Node.ServiceName)
	}
	if plan.Node.Requires != "" {
		t.Errorf("expected no requires, got %q", plan.Node.Requires)
	}
	if !strings.Contains(plan.Node.Operation, "me") {
		t.Errorf("expected operation text to reference me, got %q", plan.Node.Operation)
	}
}

// S3: independent root fields owned by different subgraphs plan to a
// Parallel of Fetches, neither depending on the other.
func TestPlanner_ParallelRootFields(t *testing.T) {
	accounts := mustSubGraph(t, "accounts", `
		type User {
			name: String!
		}

		type Query {
			me: User
		}
	`)
	products := mustSubGraph(t, "products", `
		type Product {
			name: String!
		}

		type Query {
			topProducts: [Product!]!
		}
	`)

	sg := mustSuperGraph(t, accounts, products)
	p := planner.NewPlanner(sg)

	op, fragments := parseOperation(t, `{ me { name } topProducts { name } }`)

	plan, err := p.Plan(op, fragments, planner.BuildQueryPlanOptions{})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.Node.Kind != planner.KindParallel {
		t.Fatalf("expected Parallel root, got kind %v", plan.Node.Kind)
	}
	if len(plan.Node.Children) != 2 {
		t.Fatalf("expected 2 parallel fetches, got %d", len(plan.Node.Children))
	}

	services := map[string]bool{}
	for _, child := range plan.Node.Children {
		if child.Kind != planner.KindFetch {
			t.Fatalf("expected Fetch children, got kind %v", child.Kind)
		}
		services[child.ServiceName] = true
	}
	if !services["accounts"] || !services["products"] {
		t.Errorf("expected fetches to accounts and products, got %v", services)
	}
}

func TestPlanner_RejectsSubscriptions(t *testing.T) {
	accounts := mustSubGraph(t, "accounts", `
		type User { id: ID! }
		type Query { me: User }
		type Subscription { meUpdated: User }
	`)
	sg := mustSuperGraph(t, accounts)
	p := planner.NewPlanner(sg)

	op, fragments := parseOperation(t, `subscription { meUpdated { id } }`)

	_, err := p.Plan(op, fragments, planner.BuildQueryPlanOptions{})
	if err == nil {
		t.Fatal("expected subscription operations to be rejected")
	}
}
