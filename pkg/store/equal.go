package store

import "reflect"

// Equal reports whether two state values are equal.
// Uses == for basic types and reflect.DeepEqual for everything else.
func Equal[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return same(av, b)
	case int8:
		return same(av, b)
	case int16:
		return same(av, b)
	case int32:
		return same(av, b)
	case int64:
		return same(av, b)
	case uint:
		return same(av, b)
	case uint8:
		return same(av, b)
	case uint16:
		return same(av, b)
	case uint32:
		return same(av, b)
	case uint64:
		return same(av, b)
	case float32:
		return same(av, b)
	case float64:
		return same(av, b)
	case string:
		return same(av, b)
	case bool:
		return same(av, b)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// same compares a basic value against b, which may hold a different dynamic
// type when T is an interface.
func same[V comparable](a V, b any) bool {
	bv, ok := b.(V)
	return ok && a == bv
}
