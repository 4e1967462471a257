package cruiseconfig

import (
	"reflect"
)

// validateTree clears the errors below root, validates every node and
// reports whether all of them came out clean.
func validateTree(root Validatable, ctx *ValidationContext) bool {
	ClearErrors(root)
	return validateAll(root, ctx)
}

func validateAll(root any, ctx *ValidationContext) bool {
	NewGraphWalker(DefaultConfigCache).Walk(root, ctx, func(node Validatable, nodeCtx *ValidationContext) {
		node.Validate(nodeCtx)
	})
	return len(AllErrors(root)) == 0
}

// ClearErrors drops the errors recorded on root and its descendants.
func ClearErrors(root any) {
	NewGraphWalker(DefaultConfigCache).Walk(root, nil, func(node Validatable, _ *ValidationContext) {
		node.Errors().Clear()
	})
}

// AllErrors collects every non-empty error set below root in walk order.
func AllErrors(root any) []*ConfigErrors {
	var all []*ConfigErrors
	NewGraphWalker(DefaultConfigCache).Walk(root, nil, func(node Validatable, _ *ValidationContext) {
		if errs := node.Errors(); !errs.IsEmpty() {
			all = append(all, errs)
		}
	})
	return all
}

// CopyErrors walks from and to in parallel and adds the errors of every node
// in from onto its counterpart in to. Branches present on one side only are
// ignored.
func CopyErrors(from, to any) {
	copyErrors(reflect.ValueOf(from), reflect.ValueOf(to), map[visitKey]bool{})
}

func copyErrors(from, to reflect.Value, visited map[visitKey]bool) {
	if !from.IsValid() || !to.IsValid() {
		return
	}

	switch from.Kind() {
	case reflect.Interface:
		if from.IsNil() || to.Kind() != reflect.Interface || to.IsNil() {
			return
		}
		copyErrors(from.Elem(), to.Elem(), visited)
	case reflect.Pointer:
		if from.IsNil() || to.Kind() != reflect.Pointer || to.IsNil() || from.Type() != to.Type() {
			return
		}
		key := visitKey{ptr: from.Pointer(), typ: from.Type()}
		if visited[key] || skipType(from.Type().Elem()) {
			return
		}
		visited[key] = true
		if src, ok := from.Interface().(Validatable); ok {
			to.Interface().(Validatable).Errors().AddAll(src.Errors())
		}
		copyErrors(from.Elem(), to.Elem(), visited)
	case reflect.Slice, reflect.Array:
		n := min(from.Len(), to.Len())
		for i := 0; i < n; i++ {
			copyErrors(from.Index(i), to.Index(i), visited)
		}
	case reflect.Struct:
		if skipType(from.Type()) || from.Type() != to.Type() {
			return
		}
		for _, f := range DefaultConfigCache.Fields(from.Type()) {
			if !f.SkipWalk {
				copyErrors(from.Field(f.Index), to.Field(f.Index), visited)
			}
		}
	}
}

// referredParams lists the #{name} references below root, each once, in
// the order they are first seen.
func referredParams(root any) []string {
	var names []string
	seen := map[string]bool{}
	NewGraphWalker(DefaultConfigCache).WalkStrings(root, nil, func(_ *ValidationContext, _ Validatable, _ FieldInfo, value reflect.Value) {
		for _, name := range ReferredParamNames(value.String()) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	})
	return names
}
