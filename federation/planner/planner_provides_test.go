package planner_test

import (
	"testing"

	"github.com/fedgraphql/gateway/federation/planner"
)

// S5: a field whose parent subgraph @provides the requested subfield
// resolves entirely within that subgraph, eliding the dependent fetch to
// the field's owning subgraph.
func TestPlanner_ProvidesElidesDependentFetch(t *testing.T) {
	accounts := mustSubGraph(t, "accounts", `
		type User @key(fields: "id") {
			id: ID!
			username: String!
		}

		type Query {
			_unused: String
		}
	`)
	reviewsSchema := `
		type Review {
			body: String!
			author: User! @provides(fields: "username")
		}

		extend type User @key(fields: "id") {
			id: ID! @external
			username: String! @external
		}

		type Query {
			topReviews: [Review!]!
		}
	`
	reviews := mustSubGraph(t, "reviews", reviewsSchema)

	sg := mustSuperGraph(t, accounts, reviews)
	p := planner.NewPlanner(sg)

	op, fragments := parseOperation(t, `{ topReviews { author { username } } }`)

	plan, err := p.Plan(op, fragments, planner.BuildQueryPlanOptions{})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.Node.Kind != planner.KindFetch {
		t.Fatalf("expected a single bare Fetch, got kind %v with %d children", plan.Node.Kind, len(plan.Node.Children))
	}
	if plan.Node.ServiceName != "reviews" {
		t.Errorf("expected the single fetch to target reviews, got %s", plan.Node.ServiceName)
	}
}
