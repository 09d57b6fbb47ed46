package planner

import "github.com/n9te9/graphql-parser/ast"

// Scope captures the lexical context a field occurrence was collected
// under: the composite type it appears on, the concrete types that type can
// be at runtime, and any directives inherited from an enclosing inline
// fragment.
type Scope struct {
	ParentType     string
	PossibleTypes  []string
	Directives     []*ast.Directive
	EnclosingScope *Scope
}

func intersectTypes(a, b []string) []string {
	if a == nil {
		return append([]string{}, b...)
	}
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	var out []string
	for _, t := range a {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}

func containsType(types []string, t string) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
