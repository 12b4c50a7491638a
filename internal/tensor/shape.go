package tensor

import "fmt"

// Shape holds the dimensions of a tensor.
type Shape []int

// NumElements returns the total element count. A scalar (empty shape) has
// one element.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate reports an error when any dimension is non-positive.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("dimension %d is %d, must be > 0", i, d)
		}
	}
	return nil
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Strides returns row-major strides for the shape.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}
	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Broadcast resolves two shapes under NumPy broadcasting rules: dimensions
// are compared right to left and are compatible when equal or when either
// is 1. Missing leading dimensions count as 1.
//
// Returns the broadcast shape and whether any expansion is required.
func Broadcast(a, b Shape) (Shape, bool, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(Shape, n)
	expand := false

	for i := 0; i < n; i++ {
		da, db := 1, 1
		if j := len(a) - 1 - i; j >= 0 {
			da = a[j]
		}
		if j := len(b) - 1 - i; j >= 0 {
			db = b[j]
		}
		switch {
		case da == db:
			out[n-1-i] = da
		case da == 1:
			out[n-1-i] = db
			expand = true
		case db == 1:
			out[n-1-i] = da
			expand = true
		default:
			return nil, false, fmt.Errorf("shapes %v and %v are not broadcastable (dim %d: %d vs %d)",
				a, b, n-1-i, da, db)
		}
	}
	return out, expand, nil
}
