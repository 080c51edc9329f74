// Package reflector resolves human-readable type names, used as message-type
// labels in logs and metrics. Lookups are cached.
package reflector

import (
	"reflect"
	"sync"
)

var cache sync.Map // reflect.Type -> string

// TypeNameOf returns the fully qualified type name of x's dynamic type,
// e.g. "pkg/path.TypeName". Pointer types resolve to their element type.
func TypeNameOf(x any) string {
	return nameForType(reflect.TypeOf(x))
}

// TypeNameFor returns the fully qualified name of type parameter T.
func TypeNameFor[T any]() string {
	return nameForType(reflect.TypeOf((*T)(nil)).Elem())
}

func nameForType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if n, ok := cache.Load(t); ok {
		return n.(string)
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	} else if pkg := t.PkgPath(); pkg != "" {
		name = pkg + "." + name
	}
	cache.Store(t, name)
	return name
}
