package planner

import (
	"fmt"

	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

var metaFieldTypes = map[string]string{
	"__typename": "String",
	"__schema":   "__Schema",
	"__type":     "__Type",
}

func resolveFieldDefinition(sg *graph.SuperGraph, parentType, fieldName string) (*ast.FieldDefinition, error) {
	if typeName, ok := metaFieldTypes[fieldName]; ok {
		// The GraphQL library's meta-field definitions carry no name; synthesize one.
		return &ast.FieldDefinition{
			Name: &ast.Name{Value: fieldName},
			Type: &ast.NamedType{Name: &ast.Name{Value: typeName}},
		}, nil
	}

	def, ok := sg.FieldDefinition(parentType, fieldName)
	if !ok {
		return nil, &PlanError{Message: fmt.Sprintf("field definition missing for %s.%s", parentType, fieldName)}
	}
	return def, nil
}

// collectFields walks selectionSet depth-first, expanding fragment spreads
// and inline fragments, appending a Field record per field occurrence to
// dest. visited tracks fragment spreads already expanded in this traversal
// so a fragment referenced twice within the same selection set is only
// expanded once (see the resolved open question in DESIGN.md).
func collectFields(
	ctx *Context,
	sg *graph.SuperGraph,
	scope *Scope,
	selectionSet []ast.Selection,
	fragments map[string]*ast.FragmentDefinition,
	visited map[string]bool,
	dest *FieldSet,
) error {
	for _, sel := range selectionSet {
		switch node := sel.(type) {
		case *ast.Field:
			def, err := resolveFieldDefinition(sg, scope.ParentType, node.Name.String())
			if err != nil {
				return err
			}
			*dest = append(*dest, &Field{Scope: scope, Node: node, Definition: def})

		case *ast.InlineFragment:
			typeCond := scope.ParentType
			if node.TypeCondition != nil {
				typeCond = node.TypeCondition.Name.String()
			}
			possible := intersectTypes(scope.PossibleTypes, sg.PossibleTypes(typeCond))
			if len(possible) == 0 {
				continue
			}
			newScope := ctx.scopeFor(typeCond, possible, scope)
			if len(node.Directives) > 0 {
				newScope.Directives = append(newScope.Directives, node.Directives...)
			}
			if err := collectFields(ctx, sg, newScope, node.SelectionSet, fragments, visited, dest); err != nil {
				return err
			}

		case *ast.FragmentSpread:
			name := node.Name.String()
			if visited[name] {
				continue
			}
			visited[name] = true

			fragDef, ok := fragments[name]
			if !ok {
				continue
			}
			typeCond := fragDef.TypeCondition.Name.String()
			possible := intersectTypes(scope.PossibleTypes, sg.PossibleTypes(typeCond))
			if len(possible) == 0 {
				continue
			}
			newScope := ctx.scopeFor(typeCond, possible, scope)
			if err := collectFields(ctx, sg, newScope, fragDef.SelectionSet, fragments, visited, dest); err != nil {
				return err
			}
		}
	}
	return nil
}
