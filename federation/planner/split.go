package planner

import (
	"fmt"

	"github.com/fedgraphql/gateway/federation/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// groupForField maps a single field occurrence to the FetchGroup it should
// be added to. Implementations differ by caller: root query uses one group
// per subgraph, root mutation an ordered coalescing list, subfield descent
// the §4.3 decision table.
type groupForField func(*Field) (*FetchGroup, error)

// splitFields groups fields by response name then parent type, routes each
// bucket to a destination group via route, and completes composite fields
// by descending into their subselections.
func splitFields(ctx *Context, sg *graph.SuperGraph, fields FieldSet, route groupForField, autoFragmentize bool) error {
	responseOrder, responseBuckets := bucketByResponseName(fields)

	for _, responseName := range responseOrder {
		parentOrder, parentBuckets := bucketByParentType(responseBuckets[responseName])

		for _, parentType := range parentOrder {
			bucket := parentBuckets[parentType]
			if len(bucket) == 0 {
				continue
			}
			first := bucket[0]

			if responseName == "__typename" && isRootOperationType(parentType) {
				continue
			}

			if !sg.IsAbstractType(parentType) && containsType(first.Scope.PossibleTypes, parentType) {
				if err := routeAndComplete(ctx, sg, bucket, route, autoFragmentize); err != nil {
					return err
				}
				continue
			}

			if err := splitAbstractBucket(ctx, sg, bucket, route, autoFragmentize); err != nil {
				return err
			}
		}
	}
	return nil
}

func isRootOperationType(typeName string) bool {
	return typeName == "Query" || typeName == "Mutation" || typeName == "Subscription"
}

func bucketByResponseName(fields FieldSet) ([]string, map[string]FieldSet) {
	order := make([]string, 0)
	buckets := make(map[string]FieldSet)
	for _, f := range fields {
		name := f.ResponseName()
		if _, ok := buckets[name]; !ok {
			order = append(order, name)
		}
		buckets[name] = append(buckets[name], f)
	}
	return order, buckets
}

func bucketByParentType(fields FieldSet) ([]string, map[string]FieldSet) {
	order := make([]string, 0)
	buckets := make(map[string]FieldSet)
	for _, f := range fields {
		pt := f.ParentType()
		if _, ok := buckets[pt]; !ok {
			order = append(order, pt)
		}
		buckets[pt] = append(buckets[pt], f)
	}
	return order, buckets
}

func routeAndComplete(ctx *Context, sg *graph.SuperGraph, bucket FieldSet, route groupForField, autoFragmentize bool) error {
	destGroup, err := route(bucket[0])
	if err != nil {
		return err
	}
	return completeField(ctx, sg, destGroup, bucket, autoFragmentize)
}

// splitAbstractBucket implements the interface/union branch of §4.2: if no
// runtime implementor carries distinct federation metadata for this field,
// the interface's own owning service resolves it generically (no
// explosion). Otherwise each runtime type is routed and completed
// independently, grouped by (destination group, runtime type).
func splitAbstractBucket(ctx *Context, sg *graph.SuperGraph, bucket FieldSet, route groupForField, autoFragmentize bool) error {
	first := bucket[0]
	parentType := first.ParentType()
	fieldName := first.FieldName()
	runtimeTypes := sg.PossibleTypes(parentType)

	needsExplosion := false
	for _, rt := range runtimeTypes {
		if _, ok := sg.OwningService(rt, fieldName); ok {
			needsExplosion = true
			break
		}
	}

	if !needsExplosion {
		return routeAndComplete(ctx, sg, bucket, route, autoFragmentize)
	}

	type explodedKey struct {
		group *FetchGroup
		rt    string
	}
	order := make([]explodedKey, 0, len(runtimeTypes))
	exploded := make(map[explodedKey]FieldSet)

	for _, rt := range runtimeTypes {
		rtDef, ok := sg.FieldDefinition(rt, fieldName)
		if !ok {
			continue
		}
		newScope := ctx.scopeFor(rt, []string{rt}, first.Scope)
		for _, f := range bucket {
			synthetic := &Field{Scope: newScope, Node: f.Node, Definition: rtDef}
			destGroup, err := route(synthetic)
			if err != nil {
				return err
			}
			key := explodedKey{group: destGroup, rt: rt}
			if _, ok := exploded[key]; !ok {
				order = append(order, key)
			}
			exploded[key] = append(exploded[key], synthetic)
		}
	}

	for _, key := range order {
		if err := completeField(ctx, sg, key.group, exploded[key], autoFragmentize); err != nil {
			return err
		}
	}
	return nil
}

// destinationForSubfield implements the §4.3 decision table for a field
// collected under a subgroup (parentGroup), returning the FetchGroup the
// field should ultimately be added to (possibly a freshly created or
// reused dependent group on another service).
func destinationForSubfield(sg *graph.SuperGraph, parentGroup *FetchGroup, f *Field) (*FetchGroup, error) {
	parentType := f.ParentType()
	fieldName := f.FieldName()

	if sg.IsValueType(parentType) || sg.IsAbstractType(parentType) {
		return parentGroup, nil
	}

	base, ok := sg.BaseService(parentType)
	if !ok {
		return nil, &PlanError{Message: fmt.Sprintf("base service unresolvable for type %q", parentType)}
	}
	owning, ok := sg.OwningService(parentType, fieldName)
	if !ok {
		return nil, &PlanError{Message: fmt.Sprintf("owning service unresolvable for %s.%s", parentType, fieldName)}
	}

	if owning == base {
		if owning == parentGroup.ServiceName || fieldInSelections(fieldName, parentGroup.ProvidedFields) {
			return parentGroup, nil
		}

		keys := sg.KeyFields(parentType, parentGroup.ServiceName, false)
		if onlyTypenameKeyed(keys) {
			keys = sg.KeyFields(parentType, owning, false)
		}
		if len(keys) == 0 {
			return nil, &PlanError{Message: fmt.Sprintf("no key fields found to bridge to %q for type %q", owning, parentType)}
		}
		addSelections(parentGroup, keys)
		dependent := parentGroup.dependentGroupForService(owning, keys)
		if dependent.EntityTypeName == "" {
			dependent.EntityTypeName = parentType
		}
		return dependent, nil
	}

	// required is the field's explicit @requires selection; satisfaction
	// against parent_group.provided_fields only concerns this explicit set.
	// Any cross-service hop also needs the entity's key fields to build the
	// _entities representation, regardless of @requires, so every dependent
	// group created below carries keys ∪ required.
	required := sg.RequiredFields(parentType, fieldName, owning)
	satisfied := satisfiedBy(required, parentGroup.ProvidedFields)

	if satisfied && owning == parentGroup.ServiceName {
		return parentGroup, nil
	}
	if satisfied {
		keys := sg.KeyFields(parentType, parentGroup.ServiceName, false)
		bridged := mergeSelections(keys, required)
		addSelections(parentGroup, bridged)
		dependent := parentGroup.dependentGroupForService(owning, bridged)
		if dependent.EntityTypeName == "" {
			dependent.EntityTypeName = parentType
		}
		return dependent, nil
	}
	if base == parentGroup.ServiceName {
		keys := sg.KeyFields(parentType, parentGroup.ServiceName, false)
		bridged := mergeSelections(keys, required)
		addSelections(parentGroup, bridged)
		dependent := parentGroup.dependentGroupForService(owning, bridged)
		if dependent.EntityTypeName == "" {
			dependent.EntityTypeName = parentType
		}
		return dependent, nil
	}

	baseKeys := sg.KeyFields(parentType, parentGroup.ServiceName, false)
	if len(baseKeys) == 0 {
		return nil, &PlanError{Message: fmt.Sprintf("no key fields found to bridge to %q for type %q", base, parentType)}
	}
	addSelections(parentGroup, baseKeys)
	hop := parentGroup.dependentGroupForService(base, baseKeys)
	if hop.EntityTypeName == "" {
		hop.EntityTypeName = parentType
	}
	hopKeys := sg.KeyFields(parentType, base, false)
	bridged := mergeSelections(hopKeys, required)
	addSelections(hop, bridged)
	next := hop.dependentGroupForService(owning, bridged)
	if next.EntityTypeName == "" {
		next.EntityTypeName = parentType
	}
	return next, nil
}

func fieldInSelections(fieldName string, sels []ast.Selection) bool {
	for _, sel := range sels {
		if field, ok := sel.(*ast.Field); ok && field.Name.String() == fieldName {
			return true
		}
	}
	return false
}

func onlyTypenameKeyed(keys []ast.Selection) bool {
	for _, sel := range keys {
		if field, ok := sel.(*ast.Field); ok && field.Name.String() != "__typename" {
			return false
		}
	}
	return true
}

func addSelections(group *FetchGroup, sels []ast.Selection) {
	for _, sel := range sels {
		group.addFieldNode(sel)
	}
}
