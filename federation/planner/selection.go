package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/n9te9/graphql-parser/ast"
)

// unwrapType strips NonNull/List wrappers, returning the named type and the
// number of list wrappers encountered (used to build merge_at "@" markers).
func unwrapType(t ast.Type) (string, int) {
	switch typ := t.(type) {
	case *ast.NamedType:
		return typ.Name.String(), 0
	case *ast.ListType:
		name, depth := unwrapType(typ.Type)
		return name, depth + 1
	case *ast.NonNullType:
		return unwrapType(typ.Type)
	default:
		return "", 0
	}
}

func syntheticTypenameField(scope *Scope) *Field {
	return &Field{
		Scope: scope,
		Node:  &ast.Field{Name: &ast.Name{Value: "__typename"}},
		Definition: &ast.FieldDefinition{
			Name: &ast.Name{Value: "__typename"},
			Type: &ast.NamedType{Name: &ast.Name{Value: "String"}},
		},
	}
}

// buildSelectionSet extracts the AST selections accumulated on a FetchGroup.
// By the time split/complete finish descending, each Field's Node already
// carries its own fully-built SelectionSet, so this is a flat projection.
func buildSelectionSet(group *FetchGroup) []ast.Selection {
	sels := make([]ast.Selection, 0, len(group.Fields))
	for _, f := range group.Fields {
		sels = append(sels, f.Node)
	}
	return sels
}

// canonicalSelectionKey returns a deterministic string identity for a
// selection set, used to dedupe generated fragments (§8 S6: the same
// selection reused twice must emit only one fragment definition). It need
// not be valid GraphQL, only stable and collision-resistant for structurally
// identical selections.
func canonicalSelectionKey(sels []ast.Selection) string {
	var b strings.Builder
	writeSelectionKey(&b, sels)
	return b.String()
}

func writeSelectionKey(b *strings.Builder, sels []ast.Selection) {
	b.WriteByte('{')
	for _, sel := range sels {
		switch n := sel.(type) {
		case *ast.Field:
			name := n.Name.String()
			if n.Alias != nil && n.Alias.String() != "" {
				name = n.Alias.String() + ":" + name
			}
			b.WriteString(name)
			args := make([]string, 0, len(n.Arguments))
			for _, a := range n.Arguments {
				args = append(args, fmt.Sprintf("%s=%v", a.Name.String(), a.Value))
			}
			sort.Strings(args)
			if len(args) > 0 {
				b.WriteByte('(')
				b.WriteString(strings.Join(args, ","))
				b.WriteByte(')')
			}
			if len(n.SelectionSet) > 0 {
				writeSelectionKey(b, n.SelectionSet)
			}
		case *ast.InlineFragment:
			b.WriteString("...on ")
			if n.TypeCondition != nil {
				b.WriteString(n.TypeCondition.Name.String())
			}
			writeSelectionKey(b, n.SelectionSet)
		case *ast.FragmentSpread:
			b.WriteString("...")
			b.WriteString(n.Name.String())
		}
		b.WriteByte(';')
	}
	b.WriteByte('}')
}
