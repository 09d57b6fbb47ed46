package graph

import (
	"fmt"
	"strings"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

// FieldDefinition returns the schema definition for fieldName on typeName in
// the composed schema, searching object and interface type definitions.
func (sg *SuperGraph) FieldDefinition(typeName, fieldName string) (*ast.FieldDefinition, bool) {
	for _, def := range sg.Schema.Definitions {
		switch d := def.(type) {
		case *ast.ObjectTypeDefinition:
			if d.Name.String() == typeName {
				for _, f := range d.Fields {
					if f.Name.String() == fieldName {
						return f, true
					}
				}
			}
		case *ast.InterfaceTypeDefinition:
			if d.Name.String() == typeName {
				for _, f := range d.Fields {
					if f.Name.String() == fieldName {
						return f, true
					}
				}
			}
		}
	}
	return nil, false
}

// RootTypeName returns the root type name for the given operation kind:
// "Query", "Mutation" or "Subscription". A `schema { ... }` definition that
// renames root types is not consulted.
func (sg *SuperGraph) RootTypeName(op ast.OperationType) string {
	switch op {
	case ast.Query:
		return "Query"
	case ast.Mutation:
		return "Mutation"
	case ast.Subscription:
		return "Subscription"
	}
	return ""
}

// OwningService returns the subgraph responsible for resolving fieldName on
// typeName, honoring @override. Ambiguous (@shareable) fields resolve to the
// first owner recorded during composition.
func (sg *SuperGraph) OwningService(typeName, fieldName string) (string, bool) {
	owner := sg.GetFieldOwnerSubGraph(typeName, fieldName)
	if owner == nil {
		return "", false
	}
	return owner.Name, true
}

// BaseService returns the subgraph that defines typeName as an entity: the
// first with a resolvable non-extension @key definition, else the first that
// extends it with a resolvable key. Only meaningful for entity types.
func (sg *SuperGraph) BaseService(typeName string) (string, bool) {
	owner := sg.GetEntityOwnerSubGraph(typeName)
	if owner == nil {
		return "", false
	}
	return owner.Name, true
}

// IsValueType reports whether typeName is a composite object type that is
// not federated via @key - i.e. a plain shape replicated verbatim across
// subgraphs, owned by whichever group currently holds it.
func (sg *SuperGraph) IsValueType(typeName string) bool {
	if typeName == "Query" || typeName == "Mutation" || typeName == "Subscription" {
		return false
	}
	if sg.IsEntityType(typeName) {
		return false
	}
	for _, def := range sg.Schema.Definitions {
		if objDef, ok := def.(*ast.ObjectTypeDefinition); ok && objDef.Name.String() == typeName {
			return true
		}
	}
	return false
}

// IsAbstractType reports whether typeName names an interface or union in the
// composed schema.
func (sg *SuperGraph) IsAbstractType(typeName string) bool {
	for _, def := range sg.Schema.Definitions {
		switch d := def.(type) {
		case *ast.InterfaceTypeDefinition:
			if d.Name.String() == typeName {
				return true
			}
		case *ast.UnionTypeDefinition:
			if d.Name.String() == typeName {
				return true
			}
		}
	}
	return false
}

// IsCompositeType reports whether typeName names an object, interface, or
// union type in the composed schema (i.e. it carries a selection set).
func (sg *SuperGraph) IsCompositeType(typeName string) bool {
	if sg.IsAbstractType(typeName) {
		return true
	}
	for _, def := range sg.Schema.Definitions {
		if objDef, ok := def.(*ast.ObjectTypeDefinition); ok && objDef.Name.String() == typeName {
			return true
		}
	}
	return false
}

// PossibleTypes returns the concrete object types typeName can be at
// runtime: itself for an object type, implementors for an interface,
// members for a union.
func (sg *SuperGraph) PossibleTypes(typeName string) []string {
	for _, def := range sg.Schema.Definitions {
		switch d := def.(type) {
		case *ast.ObjectTypeDefinition:
			if d.Name.String() == typeName {
				return []string{typeName}
			}
		case *ast.InterfaceTypeDefinition:
			if d.Name.String() == typeName {
				return sg.implementorsOf(typeName)
			}
		case *ast.UnionTypeDefinition:
			if d.Name.String() == typeName {
				members := make([]string, 0, len(d.Types))
				for _, t := range d.Types {
					members = append(members, t.Name.String())
				}
				return members
			}
		}
	}
	return []string{typeName}
}

func (sg *SuperGraph) implementorsOf(ifaceName string) []string {
	var result []string
	for _, def := range sg.Schema.Definitions {
		objDef, ok := def.(*ast.ObjectTypeDefinition)
		if !ok {
			continue
		}
		for _, iface := range objDef.Interfaces {
			if iface.Name.String() == ifaceName {
				result = append(result, objDef.Name.String())
				break
			}
		}
	}
	return result
}

// ParseFieldSet parses a federation field-set string (the grammar used by
// @key/@requires/@provides "fields" arguments, e.g. "id" or
// "shippingEstimate { weight }") into selection nodes, by handing it to the
// real parser wrapped as an anonymous selection set.
func ParseFieldSet(fieldSet string) ([]ast.Selection, error) {
	fieldSet = strings.TrimSpace(fieldSet)
	if fieldSet == "" {
		return nil, nil
	}

	l := lexer.New("{ " + fieldSet + " }")
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("invalid field set %q: %v", fieldSet, p.Errors())
	}

	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			return op.SelectionSet, nil
		}
	}
	return nil, fmt.Errorf("invalid field set %q", fieldSet)
}

func typenameSelection() ast.Selection {
	return &ast.Field{
		Name: &ast.Name{Value: "__typename"},
	}
}

// KeyFields returns the selection set identifying an entity instance on
// service. If fetchAll, every key's fieldset is unioned; otherwise only the
// first declared key is used, whether or not it is resolvable. __typename is
// always prepended.
func (sg *SuperGraph) KeyFields(typeName, service string, fetchAll bool) []ast.Selection {
	result := []ast.Selection{typenameSelection()}
	seen := map[string]bool{"__typename": true}

	for _, subGraph := range sg.SubGraphs {
		if subGraph.Name != service {
			continue
		}
		entity, ok := subGraph.GetEntity(typeName)
		if !ok || len(entity.Keys) == 0 {
			return result
		}

		keys := entity.Keys
		if !fetchAll {
			keys = keys[:1]
		}
		for _, key := range keys {
			sels, err := ParseFieldSet(key.FieldSet)
			if err != nil {
				continue
			}
			for _, sel := range sels {
				if field, ok := sel.(*ast.Field); ok && seen[field.Name.String()] {
					continue
				}
				if field, ok := sel.(*ast.Field); ok {
					seen[field.Name.String()] = true
				}
				result = append(result, sel)
			}
		}
	}

	return result
}

// RequiredFields returns the @requires(fields: "...") selection for
// fieldName on typeName as defined in service.
func (sg *SuperGraph) RequiredFields(typeName, fieldName, service string) []ast.Selection {
	for _, subGraph := range sg.SubGraphs {
		if subGraph.Name != service {
			continue
		}
		if entity, ok := subGraph.GetEntity(typeName); ok {
			if f, ok := entity.Fields[fieldName]; ok {
				sels, err := ParseFieldSet(f.Requires)
				if err != nil {
					return nil
				}
				return sels
			}
		}
	}
	return nil
}

// ProvidedFields returns the @provides(fields: "...") selection for
// fieldName on typeName as defined in service, scanning both entity and
// plain object type definitions since @provides may appear on either.
func (sg *SuperGraph) ProvidedFields(typeName, fieldName, service string) []ast.Selection {
	for _, subGraph := range sg.SubGraphs {
		if subGraph.Name != service {
			continue
		}
		if entity, ok := subGraph.GetEntity(typeName); ok {
			if f, ok := entity.Fields[fieldName]; ok && f.Provides != "" {
				sels, err := ParseFieldSet(f.Provides)
				if err != nil {
					return nil
				}
				return sels
			}
		}
		if fieldSet := providesFromPlainType(subGraph, typeName, fieldName); fieldSet != "" {
			sels, err := ParseFieldSet(fieldSet)
			if err != nil {
				return nil
			}
			return sels
		}
	}
	return nil
}

func providesFromPlainType(subGraph *SubGraph, typeName, fieldName string) string {
	for _, def := range subGraph.Schema.Definitions {
		objDef, ok := def.(*ast.ObjectTypeDefinition)
		if !ok || objDef.Name.String() != typeName {
			continue
		}
		for _, field := range objDef.Fields {
			if field.Name.String() != fieldName {
				continue
			}
			for _, d := range field.Directives {
				if d.Name == "provides" && len(d.Arguments) > 0 {
					return strings.Trim(d.Arguments[0].Value.String(), "\"")
				}
			}
		}
	}
	return ""
}
