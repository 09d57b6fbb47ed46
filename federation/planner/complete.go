package planner

import (
	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// completeField finishes a response-name/parent-type bucket routed to
// destGroup: scalar/enum fields are added as-is, composite fields spawn a
// subGroup, descend into their subselections, and have their selection set
// replaced by the result (§4.4).
func completeField(ctx *Context, sg *graph.SuperGraph, destGroup *FetchGroup, bucket FieldSet, autoFragmentize bool) error {
	first := bucket[0]
	returnTypeName, listDepth := unwrapType(first.Definition.Type)

	if !sg.IsCompositeType(returnTypeName) {
		for _, f := range bucket {
			destGroup.addField(f)
		}
		return nil
	}

	responseName := first.ResponseName()
	mergeAt := append(append([]string{}, destGroup.MergeAt...), responseName)
	for i := 0; i < listDepth; i++ {
		mergeAt = append(mergeAt, "@")
	}

	subGroup := newFetchGroup(destGroup.ServiceName, mergeAt)
	subGroup.ProvidedFields = sg.ProvidedFields(first.ParentType(), first.FieldName(), destGroup.ServiceName)

	possible := sg.PossibleTypes(returnTypeName)
	newScope := ctx.scopeFor(returnTypeName, possible, first.Scope)

	if sg.IsAbstractType(returnTypeName) {
		subGroup.Fields = append(subGroup.Fields, syntheticTypenameField(newScope))
	}

	var unionSelections []ast.Selection
	for _, f := range bucket {
		unionSelections = mergeSelections(unionSelections, f.Node.SelectionSet)
	}

	var childFields FieldSet
	visited := make(map[string]bool)
	if err := collectFields(ctx, sg, newScope, unionSelections, ctx.OperationFragments, visited, &childFields); err != nil {
		return err
	}

	route := func(f *Field) (*FetchGroup, error) {
		return destinationForSubfield(sg, subGroup, f)
	}
	if err := splitFields(ctx, sg, childFields, route, autoFragmentize); err != nil {
		return err
	}

	destGroup.OtherDependentGroups = append(destGroup.OtherDependentGroups, subGroup.DependentGroups()...)

	childSelections := buildSelectionSet(subGroup)
	if autoFragmentize && len(childSelections) > 2 {
		key := canonicalSelectionKey(childSelections)
		fragName := ctx.internFragment(key, returnTypeName, childSelections)
		childSelections = []ast.Selection{&ast.FragmentSpread{Name: &ast.Name{Value: fragName}}}
	}

	mergedNode := &ast.Field{
		Alias:      first.Node.Alias,
		Name:       first.Node.Name,
		Arguments:  first.Node.Arguments,
		Directives: first.Node.Directives,
		SelectionSet: childSelections,
	}
	destGroup.addField(&Field{Scope: first.Scope, Node: mergedNode, Definition: first.Definition})
	return nil
}
