package fseq

import (
	"math"
	"reflect"
)

// Same reports whether a and b are the same value in the sense of
// reference identity: two nils are the same, values of different
// dynamic types are not, values of uncomparable dynamic types are
// never the same, and everything else compares with ==.
//
// Floats get identity treatment rather than IEEE comparison:
// two NaNs are the same value, and the signed zeros are distinct.
//
// Drivers use this for consecutive-duplicate suppression.
// It is intentionally not a structural comparison:
// two distinct pointers to equal data are different values.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}

	switch ta.Kind() {
	case reflect.Float32, reflect.Float64:
		x := reflect.ValueOf(a).Float()
		y := reflect.ValueOf(b).Float()

		if x != x && y != y {
			return true
		}
		if x == 0 && y == 0 {
			return math.Signbit(x) == math.Signbit(y)
		}
		return x == y
	}

	if !ta.Comparable() {
		return false
	}

	return a == b
}
