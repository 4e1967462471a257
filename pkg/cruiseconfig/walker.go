package cruiseconfig

import (
	"reflect"
	"time"
)

// Handler is invoked for every Validatable reachable from the walk root.
type Handler func(node Validatable, ctx *ValidationContext)

// GraphWalker visits a config graph depth first.
type GraphWalker struct {
	cache *ConfigCache
}

func NewGraphWalker(cache *ConfigCache) *GraphWalker {
	if cache == nil {
		cache = DefaultConfigCache
	}
	return &GraphWalker{cache: cache}
}

var (
	configErrorsType = reflect.TypeOf(ConfigErrors{})
	timeType         = reflect.TypeOf(time.Time{})
)

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

// Walk calls handler on root and every Validatable below it. A node's
// children are walked with ctx.WithParent(node).
func (w *GraphWalker) Walk(root any, ctx *ValidationContext, handler Handler) {
	visited := map[visitKey]bool{}
	w.walk(reflect.ValueOf(root), ctx, handler, visited)
}

func (w *GraphWalker) walk(v reflect.Value, ctx *ValidationContext, handler Handler, visited map[visitKey]bool) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return
		}
		w.walk(v.Elem(), ctx, handler, visited)
		return
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type()}
		if visited[key] {
			return
		}
		visited[key] = true
		if skipType(v.Type().Elem()) {
			return
		}
		if node, ok := v.Interface().(Validatable); ok {
			handler(node, ctx)
			ctx = ctx.WithParent(node)
		}
		w.walkChildren(v.Elem(), ctx, handler, visited)
		return
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.walk(v.Index(i), ctx, handler, visited)
		}
		return
	case reflect.Struct:
		if skipType(v.Type()) {
			return
		}
		if v.CanAddr() {
			w.walk(v.Addr(), ctx, handler, visited)
			return
		}
		w.walkChildren(v, ctx, handler, visited)
	}
}

func (w *GraphWalker) walkChildren(v reflect.Value, ctx *ValidationContext, handler Handler, visited map[visitKey]bool) {
	if v.Kind() != reflect.Struct {
		w.walk(v, ctx, handler, visited)
		return
	}
	for _, f := range w.cache.Fields(v.Type()) {
		if f.SkipWalk {
			continue
		}
		w.walk(v.Field(f.Index), ctx, handler, visited)
	}
}

func skipType(t reflect.Type) bool {
	if t == configErrorsType || t == timeType {
		return true
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Interface:
		return false
	}
	return true
}

// StringHandler receives every resolvable string field. owner is the nearest
// enclosing config node and ctx includes it.
type StringHandler func(ctx *ValidationContext, owner Validatable, field FieldInfo, value reflect.Value)

// WalkStrings visits string fields, string slices and string pointers below
// root, skipping fields tagged param:"skip".
func (w *GraphWalker) WalkStrings(root any, ctx *ValidationContext, fn StringHandler) {
	visited := map[visitKey]bool{}
	w.walkStrings(reflect.ValueOf(root), ctx, nil, fn, visited)
}

func (w *GraphWalker) walkStrings(v reflect.Value, ctx *ValidationContext, owner Validatable, fn StringHandler, visited map[visitKey]bool) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Interface:
		if !v.IsNil() {
			w.walkStrings(v.Elem(), ctx, owner, fn, visited)
		}
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type()}
		if visited[key] {
			return
		}
		visited[key] = true
		if skipType(v.Type().Elem()) {
			return
		}
		if node, ok := v.Interface().(Validatable); ok {
			owner = node
			ctx = ctx.WithParent(node)
		}
		w.walkStrings(v.Elem(), ctx, owner, fn, visited)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.walkStrings(v.Index(i), ctx, owner, fn, visited)
		}
	case reflect.Struct:
		if skipType(v.Type()) {
			return
		}
		w.stringFields(v, ctx, owner, fn, visited)
	}
}

func (w *GraphWalker) stringFields(v reflect.Value, ctx *ValidationContext, owner Validatable, fn StringHandler, visited map[visitKey]bool) {
	for _, f := range w.cache.Fields(v.Type()) {
		if f.SkipParams || f.SkipWalk {
			continue
		}
		fv := v.Field(f.Index)
		switch {
		case fv.Kind() == reflect.String:
			fn(ctx, owner, f, fv)
		case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.String:
			for i := 0; i < fv.Len(); i++ {
				fn(ctx, owner, f, fv.Index(i))
			}
		case fv.Kind() == reflect.Pointer && fv.Type().Elem().Kind() == reflect.String:
			if !fv.IsNil() {
				fn(ctx, owner, f, fv.Elem())
			}
		default:
			w.walkStrings(fv, ctx, owner, fn, visited)
		}
	}
}
