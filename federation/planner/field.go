package planner

import "github.com/n9te9/graphql-parser/ast"

// Field is a single selection-set occurrence of a field, tagged with the
// lexical Scope it was collected under.
type Field struct {
	Scope      *Scope
	Node       *ast.Field
	Definition *ast.FieldDefinition
}

// ResponseName is the alias if present, else the field name.
func (f *Field) ResponseName() string {
	if f.Node.Alias != nil && f.Node.Alias.String() != "" {
		return f.Node.Alias.String()
	}
	return f.Node.Name.String()
}

func (f *Field) FieldName() string {
	return f.Node.Name.String()
}

func (f *Field) ParentType() string {
	return f.Scope.ParentType
}

// FieldSet is an ordered, possibly-duplicated list of Field occurrences.
type FieldSet []*Field

func selectionResponseNames(sels []ast.Selection) map[string]bool {
	names := make(map[string]bool, len(sels))
	for _, sel := range sels {
		if field, ok := sel.(*ast.Field); ok {
			name := field.Name.String()
			if field.Alias != nil && field.Alias.String() != "" {
				name = field.Alias.String()
			}
			names[name] = true
		}
	}
	return names
}

// satisfiedBy reports whether every top-level selection in required has a
// same-response-name counterpart in provided.
func satisfiedBy(required, provided []ast.Selection) bool {
	if len(required) == 0 {
		return true
	}
	have := selectionResponseNames(provided)
	for name := range selectionResponseNames(required) {
		if !have[name] {
			return false
		}
	}
	return true
}
