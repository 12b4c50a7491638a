// Package tensor provides the core tensor types shared by every backend in
// this repository.
package tensor

// DType is the compile-time constraint for supported element types.
type DType interface {
	~float32 | ~float64 | ~int32
}

// DataType is the runtime tag describing a tensor's element type.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float64
	Int32
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64:
		return 8
	default:
		panic("tensor: unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// TypeOf reports the DataType corresponding to the generic type T.
func TypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	default:
		panic("tensor: unsupported element type")
	}
}
