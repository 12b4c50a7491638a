package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device identifies where tensor memory lives.
type Device int

// Supported devices. Accelerator is reserved for externally managed
// accelerator memory; every backend in this repository computes on CPU.
const (
	CPU Device = iota
	Accelerator
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case Accelerator:
		return "Accelerator"
	default:
		return "Unknown"
	}
}

// buffer is a reference-counted byte buffer shared between tensors.
// refCount == 1 means the holder may mutate in place.
type buffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex
}

func newBuffer(size int) *buffer {
	b := &buffer{data: make([]byte, size)}
	b.refCount.Store(1)
	return b
}

func (b *buffer) addRef() {
	b.refCount.Add(1)
}

func (b *buffer) release() {
	if b.refCount.Add(-1) == 0 {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.data = nil
	}
}

func (b *buffer) isUnique() bool {
	return b.refCount.Load() == 1
}

// RawTensor is the untyped tensor representation backends operate on.
// Buffers are reference counted so clones are cheap and inplace kernels
// can run when a buffer has a single owner.
type RawTensor struct {
	buf    *buffer
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw allocates a zeroed RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		buf:    newBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.Strides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// MustRaw is NewRaw that panics on error. Intended for kernels whose
// output shapes are derived from already validated inputs.
func MustRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's row-major strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns where the tensor's memory lives.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the buffer size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice backing the tensor.
func (r *RawTensor) Data() []byte {
	return r.buf.data
}

// AsFloat32 interprets the buffer as []float32.
// Panics if the dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.buf.data[0])), r.NumElements())
}

// AsFloat64 interprets the buffer as []float64.
// Panics if the dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.buf.data[0])), r.NumElements())
}

// AsInt32 interprets the buffer as []int32.
// Panics if the dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.buf.data[0])), r.NumElements())
}

// Clone creates a shallow copy sharing the buffer. The copy only becomes a
// real allocation when a kernel needs to write while the buffer is shared.
func (r *RawTensor) Clone() *RawTensor {
	r.buf.addRef()
	return &RawTensor{
		buf:    r.buf,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

// WithShape returns a view of the same buffer under a different shape.
// The element count must match.
func (r *RawTensor) WithShape(shape Shape) (*RawTensor, error) {
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot view %v as %v: element count mismatch", r.shape, shape)
	}
	r.buf.addRef()
	return &RawTensor{
		buf:    r.buf,
		shape:  shape.Clone(),
		stride: shape.Strides(),
		dtype:  r.dtype,
		device: r.device,
	}, nil
}

// Release decrements the reference count, freeing the buffer when it
// reaches zero.
func (r *RawTensor) Release() {
	r.buf.release()
}

// IsUnique reports whether this tensor is the buffer's only owner.
// Backends use this to decide between inplace and out-of-place kernels.
func (r *RawTensor) IsUnique() bool {
	return r.buf.isUnique()
}

// ForceNonUnique pins the buffer so inplace kernels cannot mutate it.
// The gradient tape relies on this: backward passes need the original
// input values. The returned func MUST be called to unpin (use defer).
func (r *RawTensor) ForceNonUnique() func() {
	r.buf.addRef()
	return func() {
		r.buf.release()
	}
}
