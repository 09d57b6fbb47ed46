package planner

import "github.com/n9te9/graphql-parser/ast"

// FetchGroup accumulates the selection set that will be sent to one
// subgraph as a single fetch, along with the dependency edges needed to
// resolve it (required_fields) and the children it unlocks once it returns.
type FetchGroup struct {
	ServiceName    string
	Fields         FieldSet
	RequiredFields []ast.Selection
	ProvidedFields []ast.Selection
	MergeAt        []string

	// EntityTypeName is the federation entity type this group fetches by key,
	// set when the group was created as an entity/dependent fetch (§4.3). A
	// root group (the whole operation's top-level groups) leaves this empty;
	// emission resolves its parent type from the operation kind instead.
	EntityTypeName string

	// OtherDependentGroups holds subgroups hoisted up from composite-field
	// completion (§4.4); dependentByService holds groups created directly by
	// subfield destination routing (§4.3), keyed and coalesced by service
	// name. The effective child set is their union (dependentOrder tracks
	// deterministic emission order for the keyed half). Fragment interning
	// itself lives on Context (ctx.fragments), not per-group.
	OtherDependentGroups []*FetchGroup

	dependentByService map[string]*FetchGroup
	dependentOrder     []string
}

func newFetchGroup(service string, mergeAt []string) *FetchGroup {
	return &FetchGroup{
		ServiceName: service,
		MergeAt:     append([]string{}, mergeAt...),
	}
}

// dependentGroupForService returns the existing dependent group targeting
// service, appending requiredFields to it, or creates one if this is the
// first request to that service from this group.
func (g *FetchGroup) dependentGroupForService(service string, requiredFields []ast.Selection) *FetchGroup {
	if g.dependentByService == nil {
		g.dependentByService = make(map[string]*FetchGroup)
	}
	if existing, ok := g.dependentByService[service]; ok {
		existing.RequiredFields = mergeSelections(existing.RequiredFields, requiredFields)
		return existing
	}

	child := newFetchGroup(service, g.MergeAt)
	child.RequiredFields = append(child.RequiredFields, requiredFields...)
	g.dependentByService[service] = child
	g.dependentOrder = append(g.dependentOrder, service)
	return child
}

// DependentGroups returns the union of the service-keyed children and the
// hoisted other-dependent-groups, service-keyed children first in creation
// order.
func (g *FetchGroup) DependentGroups() []*FetchGroup {
	seen := make(map[*FetchGroup]bool)
	var out []*FetchGroup
	for _, svc := range g.dependentOrder {
		child := g.dependentByService[svc]
		if !seen[child] {
			seen[child] = true
			out = append(out, child)
		}
	}
	for _, child := range g.OtherDependentGroups {
		if !seen[child] {
			seen[child] = true
			out = append(out, child)
		}
	}
	return out
}

func (g *FetchGroup) addField(f *Field) {
	name := f.ResponseName()
	for _, existing := range g.Fields {
		if existing.ResponseName() == name {
			return
		}
	}
	g.Fields = append(g.Fields, f)
}

func (g *FetchGroup) addFieldNode(node ast.Selection) {
	field, ok := node.(*ast.Field)
	if !ok {
		return
	}
	name := field.Name.String()
	if field.Alias != nil && field.Alias.String() != "" {
		name = field.Alias.String()
	}
	for _, existing := range g.Fields {
		if existing.ResponseName() == name {
			return
		}
	}
	g.Fields = append(g.Fields, &Field{Node: field})
}

func mergeSelections(existing, additions []ast.Selection) []ast.Selection {
	have := selectionResponseNames(existing)
	out := append([]ast.Selection{}, existing...)
	for _, sel := range additions {
		field, ok := sel.(*ast.Field)
		if !ok {
			out = append(out, sel)
			continue
		}
		name := field.Name.String()
		if field.Alias != nil && field.Alias.String() != "" {
			name = field.Alias.String()
		}
		if have[name] {
			continue
		}
		have[name] = true
		out = append(out, sel)
	}
	return out
}
