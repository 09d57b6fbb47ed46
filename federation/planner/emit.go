package planner

import (
	"fmt"
	"strings"

	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// executionNodeForGroup implements §4.5: build the outbound document for
// group, wrap it in Flatten if it targets a nested path, and recurse into
// its dependent groups.
func executionNodeForGroup(ctx *Context, sg *graph.SuperGraph, group *FetchGroup, opKind ast.OperationType) (*PlanNode, error) {
	selectionSet := buildSelectionSet(group)
	var requiresSelection []ast.Selection
	if len(group.RequiredFields) > 0 {
		requiresSelection = group.RequiredFields
	}

	parentType := group.EntityTypeName
	if parentType == "" {
		parentType = sg.RootTypeName(opKind)
	}

	varNames := collectVariableNames(selectionSet, requiresSelection, ctx.allFragments())
	varDefs := make(map[string]string, len(varNames))
	for _, name := range varNames {
		varDefs[name] = inferVariableType(sg, group.ServiceName, parentType, name, selectionSet, requiresSelection)
	}

	operationText, requiresText := buildDocumentText(group, selectionSet, requiresSelection, varNames, varDefs, opKind, ctx.allFragments())

	node := fetchNode(group.ServiceName, varNames, requiresText, operationText)
	if len(group.MergeAt) > 0 {
		node = flattenNode(group.MergeAt, node)
	}

	dependents := group.DependentGroups()
	if len(dependents) == 0 {
		return node, nil
	}

	children := make([]*PlanNode, 0, len(dependents))
	for _, dep := range dependents {
		childNode, err := executionNodeForGroup(ctx, sg, dep, opKind)
		if err != nil {
			return nil, err
		}
		children = append(children, childNode)
	}

	return sequenceNode([]*PlanNode{node, flatWrap(KindParallel, children)}), nil
}

// buildDocumentText serializes the fetch's outbound GraphQL document: an
// _entities(representations: ...) query if group carries required_fields,
// else a plain operation of the client operation's kind.
func buildDocumentText(
	group *FetchGroup,
	selectionSet []ast.Selection,
	requiresSelection []ast.Selection,
	varNames []string,
	varDefs map[string]string,
	opKind ast.OperationType,
	fragments []*ast.FragmentDefinition,
) (operationText string, requiresText string) {
	var sb strings.Builder

	if len(requiresSelection) > 0 {
		requiresText = stripIgnoredCharacters(printSelectionSet(requiresSelection, "\t\t\t"))

		sb.WriteString("query($representations: [_Any!]!")
		for _, name := range varNames {
			sb.WriteString(", $")
			sb.WriteString(name)
			sb.WriteString(": ")
			sb.WriteString(varDefs[name])
		}
		sb.WriteString(") {\n")
		sb.WriteString("\t_entities(representations: $representations) {\n")
		sb.WriteString("\t\t... on ")
		sb.WriteString(group.EntityTypeName)
		sb.WriteString(" {\n")
		for _, sel := range requiresSelection {
			sb.WriteString(printSelection(sel, "\t\t\t"))
		}
		for _, sel := range selectionSet {
			sb.WriteString(printSelection(sel, "\t\t\t"))
		}
		sb.WriteString("\t\t}\n\t}\n}")
	} else {
		keyword := "query"
		if opKind == ast.Mutation {
			keyword = "mutation"
		}
		sb.WriteString(keyword)
		if len(varNames) > 0 {
			sb.WriteString("(")
			for i, name := range varNames {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString("$")
				sb.WriteString(name)
				sb.WriteString(": ")
				sb.WriteString(varDefs[name])
			}
			sb.WriteString(")")
		}
		sb.WriteString(" {\n")
		for _, sel := range selectionSet {
			sb.WriteString(printSelection(sel, "\t"))
		}
		sb.WriteString("}")
	}

	for _, frag := range fragments {
		sb.WriteString("\nfragment ")
		sb.WriteString(frag.Name.String())
		sb.WriteString(" on ")
		sb.WriteString(frag.TypeCondition.Name.String())
		sb.WriteString(" {\n")
		for _, sel := range frag.SelectionSet {
			sb.WriteString(printSelection(sel, "\t"))
		}
		sb.WriteString("}")
	}

	return stripIgnoredCharacters(sb.String()), requiresText
}

func printSelectionSet(sels []ast.Selection, indent string) string {
	var sb strings.Builder
	for _, sel := range sels {
		sb.WriteString(printSelection(sel, indent))
	}
	return sb.String()
}

func printSelection(sel ast.Selection, indent string) string {
	var sb strings.Builder
	switch s := sel.(type) {
	case *ast.Field:
		sb.WriteString(indent)
		if s.Alias != nil && s.Alias.String() != "" {
			sb.WriteString(s.Alias.String())
			sb.WriteString(": ")
		}
		sb.WriteString(s.Name.String())
		if len(s.Arguments) > 0 {
			sb.WriteString("(")
			for i, arg := range s.Arguments {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(arg.Name.String())
				sb.WriteString(": ")
				sb.WriteString(printValue(arg.Value))
			}
			sb.WriteString(")")
		}
		if len(s.SelectionSet) > 0 {
			sb.WriteString(" {\n")
			sb.WriteString(printSelectionSet(s.SelectionSet, indent+"\t"))
			sb.WriteString(indent)
			sb.WriteString("}")
		}
		sb.WriteString("\n")

	case *ast.InlineFragment:
		sb.WriteString(indent)
		sb.WriteString("... on ")
		sb.WriteString(s.TypeCondition.Name.String())
		sb.WriteString(" {\n")
		sb.WriteString(printSelectionSet(s.SelectionSet, indent+"\t"))
		sb.WriteString(indent)
		sb.WriteString("}\n")

	case *ast.FragmentSpread:
		sb.WriteString(indent)
		sb.WriteString("...")
		sb.WriteString(s.Name.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func printValue(val ast.Value) string {
	switch v := val.(type) {
	case *ast.StringValue:
		return fmt.Sprintf("%q", v.Value)
	case *ast.IntValue:
		return fmt.Sprintf("%d", v.Value)
	case *ast.FloatValue:
		return fmt.Sprintf("%f", v.Value)
	case *ast.BooleanValue:
		return fmt.Sprintf("%t", v.Value)
	case *ast.Variable:
		return "$" + v.Name
	case *ast.ListValue:
		parts := make([]string, 0, len(v.Values))
		for _, item := range v.Values {
			parts = append(parts, printValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.ObjectValue:
		parts := make([]string, 0, len(v.Fields))
		for _, field := range v.Fields {
			parts = append(parts, field.Name.String()+": "+printValue(field.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ast.EnumValue:
		return v.Value
	default:
		return "null"
	}
}

// stripIgnoredCharacters trims trailing spaces and tabs from every line of
// the printed document. Line breaks, indentation and the spaces the printer
// puts between tokens are kept, so the result is not a minimal
// whitespace-free document.
func stripIgnoredCharacters(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

func collectVariableNames(sets ...interface{}) []string {
	seen := make(map[string]bool)
	var order []string
	var walkValue func(ast.Value)
	var walkSelections func([]ast.Selection)

	walkValue = func(val ast.Value) {
		switch v := val.(type) {
		case *ast.Variable:
			if !seen[v.Name] {
				seen[v.Name] = true
				order = append(order, v.Name)
			}
		case *ast.ListValue:
			for _, item := range v.Values {
				walkValue(item)
			}
		case *ast.ObjectValue:
			for _, field := range v.Fields {
				walkValue(field.Value)
			}
		}
	}

	walkSelections = func(sels []ast.Selection) {
		for _, sel := range sels {
			switch s := sel.(type) {
			case *ast.Field:
				for _, arg := range s.Arguments {
					walkValue(arg.Value)
				}
				walkSelections(s.SelectionSet)
			case *ast.InlineFragment:
				walkSelections(s.SelectionSet)
			}
		}
	}

	for _, set := range sets {
		switch v := set.(type) {
		case []ast.Selection:
			walkSelections(v)
		case []*ast.FragmentDefinition:
			for _, frag := range v {
				walkSelections(frag.SelectionSet)
			}
		}
	}
	return order
}

// inferVariableType resolves a variable's GraphQL type by locating an
// argument usage in the selection set and walking the named subgraph's
// schema from parentType down to that argument's declared type, falling
// back to String when no declaration can be found. It is used for every
// fetch, root fetches included; the client operation's own variable
// definitions are not consulted.
func inferVariableType(sg *graph.SuperGraph, service, parentType, varName string, sets ...[]ast.Selection) string {
	schema := subGraphSchema(sg, service)
	if schema == nil {
		return "String"
	}
	for _, sels := range sets {
		if t, ok := findVariableType(schema, parentType, varName, sels); ok {
			return t
		}
	}
	return "String"
}

func subGraphSchema(sg *graph.SuperGraph, service string) *ast.Document {
	for _, s := range sg.SubGraphs {
		if s.Name == service {
			return s.Schema
		}
	}
	return nil
}

func findVariableType(schema *ast.Document, parentType, varName string, sels []ast.Selection) (string, bool) {
	for _, sel := range sels {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		fieldName := field.Name.String()
		for _, arg := range field.Arguments {
			if v, ok := arg.Value.(*ast.Variable); ok && v.Name == varName {
				if t, ok := argumentTypeFromSchema(schema, parentType, fieldName, arg.Name.String()); ok {
					return t, true
				}
			}
		}
		if len(field.SelectionSet) > 0 {
			childType := fieldTypeFromSchema(schema, parentType, fieldName)
			if childType != "" {
				if t, ok := findVariableType(schema, childType, varName, field.SelectionSet); ok {
					return t, true
				}
			}
		}
	}
	return "", false
}

func argumentTypeFromSchema(schema *ast.Document, parentType, fieldName, argName string) (string, bool) {
	for _, def := range schema.Definitions {
		objType, ok := def.(*ast.ObjectTypeDefinition)
		if !ok || objType.Name.String() != parentType {
			continue
		}
		for _, field := range objType.Fields {
			if field.Name.String() != fieldName {
				continue
			}
			for _, arg := range field.Arguments {
				if arg.Name.String() == argName {
					return arg.Type.String(), true
				}
			}
		}
	}
	return "", false
}

func fieldTypeFromSchema(schema *ast.Document, parentType, fieldName string) string {
	for _, def := range schema.Definitions {
		objType, ok := def.(*ast.ObjectTypeDefinition)
		if !ok || objType.Name.String() != parentType {
			continue
		}
		for _, field := range objType.Fields {
			if field.Name.String() == fieldName {
				name, _ := unwrapType(field.Type)
				return name
			}
		}
	}
	return ""
}
