package planner

// PlanNodeKind discriminates the QueryPlan tree's node variants.
type PlanNodeKind string

const (
	KindFetch    PlanNodeKind = "Fetch"
	KindFlatten  PlanNodeKind = "Flatten"
	KindSequence PlanNodeKind = "Sequence"
	KindParallel PlanNodeKind = "Parallel"
)

// PlanNode is the tagged union emitted by the planner: exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type PlanNode struct {
	Kind PlanNodeKind

	// Fetch fields.
	ServiceName     string
	VariableUsages  []string
	Requires        string
	Operation       string

	// Flatten fields.
	Path  []string
	Child *PlanNode

	// Sequence/Parallel fields.
	Children []*PlanNode
}

// QueryPlan is the top-level planning artifact.
type QueryPlan struct {
	Node *PlanNode
}

func fetchNode(service string, variableUsages []string, requires string, operation string) *PlanNode {
	return &PlanNode{
		Kind:           KindFetch,
		ServiceName:    service,
		VariableUsages: variableUsages,
		Requires:       requires,
		Operation:      operation,
	}
}

func flattenNode(path []string, child *PlanNode) *PlanNode {
	return &PlanNode{Kind: KindFlatten, Path: path, Child: child}
}

// flatWrap builds a kind-tagged node over nodes, flattening any immediate
// children that are themselves of the same kind (associativity). Per §4.5,
// this auto-flattening is applied to Parallel only; Sequence call sites
// build their node list directly without flattening, preserving an
// asymmetry required for output equivalence with a legacy call path.
//
// Calling flatWrap with an empty node list is a programmer error.
func flatWrap(kind PlanNodeKind, nodes []*PlanNode) *PlanNode {
	if len(nodes) == 0 {
		panic("flatWrap called with no nodes")
	}
	if len(nodes) == 1 {
		return nodes[0]
	}
	if kind != KindParallel {
		return &PlanNode{Kind: kind, Children: nodes}
	}

	flat := make([]*PlanNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == kind {
			flat = append(flat, n.Children...)
		} else {
			flat = append(flat, n)
		}
	}
	return &PlanNode{Kind: kind, Children: flat}
}

func sequenceNode(nodes []*PlanNode) *PlanNode {
	if len(nodes) == 0 {
		panic("sequenceNode called with no nodes")
	}
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &PlanNode{Kind: KindSequence, Children: nodes}
}
