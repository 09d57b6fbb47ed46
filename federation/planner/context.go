package planner

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
)

// Context is constructed fresh for each Plan call. It owns the
// fragment-generation counter and internal-fragment table for
// auto-fragmentization, and the scope cache used during field collection.
//
// The scope cache is keyed by parent type name only, not by the full
// lexical path: the first Scope built for a given parent type within a
// planning call is reused for every later occurrence of that same parent
// type, so an inline fragment's directives (assigned onto the cached Scope)
// leak into unrelated fields that merely share the parent type. This is an
// inherited quirk from the reference implementation (see DESIGN.md) and is
// preserved deliberately, not a bug in this port.
type Context struct {
	scopeCache      map[string]*Scope
	fragmentCounter int
	fragments       map[string]*ast.FragmentDefinition // generated internal fragments, by canonical selection identity
	fragmentOrder   []string

	// OperationFragments is the client operation's name->definition table,
	// consulted when expanding fragment spreads during collection.
	OperationFragments map[string]*ast.FragmentDefinition
}

func newContext(operationFragments map[string]*ast.FragmentDefinition) *Context {
	return &Context{
		scopeCache:         make(map[string]*Scope),
		fragments:          make(map[string]*ast.FragmentDefinition),
		OperationFragments: operationFragments,
	}
}

// scopeFor returns the cached Scope for parentType, creating it (with the
// given possibleTypes/enclosing) on first use.
func (c *Context) scopeFor(parentType string, possibleTypes []string, enclosing *Scope) *Scope {
	if s, ok := c.scopeCache[parentType]; ok {
		return s
	}
	s := &Scope{
		ParentType:     parentType,
		PossibleTypes:  possibleTypes,
		EnclosingScope: enclosing,
	}
	c.scopeCache[parentType] = s
	return s
}

func (c *Context) nextFragmentName() string {
	name := fmt.Sprintf("__QueryPlanFragment_%d", c.fragmentCounter)
	c.fragmentCounter++
	return name
}

// internFragment registers a generated fragment under key (its canonical
// selection-set identity), returning the existing fragment's name if one
// was already registered for that key.
func (c *Context) internFragment(key string, typeName string, selectionSet []ast.Selection) string {
	if existing, ok := c.fragments[key]; ok {
		return existing.Name.String()
	}
	name := c.nextFragmentName()
	def := &ast.FragmentDefinition{
		Name:          &ast.Name{Value: name},
		TypeCondition: &ast.NamedType{Name: &ast.Name{Value: typeName}},
		SelectionSet:  selectionSet,
	}
	c.fragments[key] = def
	c.fragmentOrder = append(c.fragmentOrder, key)
	return name
}

func (c *Context) allFragments() []*ast.FragmentDefinition {
	out := make([]*ast.FragmentDefinition, 0, len(c.fragmentOrder))
	for _, key := range c.fragmentOrder {
		out = append(out, c.fragments[key])
	}
	return out
}
