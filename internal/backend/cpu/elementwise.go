package cpu

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// number mirrors the tensor.DType constraint for kernel helpers.
type number interface {
	~float32 | ~float64 | ~int32
}

// Add performs elementwise addition with broadcasting.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs elementwise subtraction with broadcasting.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs elementwise multiplication with broadcasting.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs elementwise division with broadcasting.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("div", a, b, func(x, y float64) float64 { return x / y })
}

// binary resolves broadcasting and dispatches on dtype. Same-shape inputs
// with a uniquely owned left operand take the inplace fast path.
func (c *Backend) binary(name string, a, b *tensor.RawTensor, f func(x, y float64) float64) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.Broadcast(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast {
		if a.IsUnique() {
			switch a.DType() {
			case tensor.Float32:
				binaryInplace(a.AsFloat32(), b.AsFloat32(), f)
			case tensor.Float64:
				binaryInplace(a.AsFloat64(), b.AsFloat64(), f)
			case tensor.Int32:
				binaryInplace(a.AsInt32(), b.AsInt32(), f)
			}
			return a
		}
		out := tensor.MustRaw(outShape, a.DType(), c.device)
		switch a.DType() {
		case tensor.Float32:
			binarySame(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f)
		case tensor.Float64:
			binarySame(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f)
		case tensor.Int32:
			binarySame(out.AsInt32(), a.AsInt32(), b.AsInt32(), f)
		}
		return out
	}

	out := tensor.MustRaw(outShape, a.DType(), c.device)
	switch a.DType() {
	case tensor.Float32:
		binaryBroadcast(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), f)
	case tensor.Float64:
		binaryBroadcast(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), f)
	case tensor.Int32:
		binaryBroadcast(out.AsInt32(), a.AsInt32(), b.AsInt32(), outShape, a.Shape(), b.Shape(), f)
	}
	return out
}

func binarySame[T number](dst, a, b []T, f func(x, y float64) float64) {
	for i := range dst {
		dst[i] = T(f(float64(a[i]), float64(b[i])))
	}
}

func binaryInplace[T number](a, b []T, f func(x, y float64) float64) {
	for i := range a {
		a[i] = T(f(float64(a[i]), float64(b[i])))
	}
}

// binaryBroadcast walks the output index space and maps each coordinate
// back into a and b, treating size-1 dimensions as stride 0.
func binaryBroadcast[T number](
	dst, a, b []T,
	outShape, aShape, bShape tensor.Shape,
	f func(x, y float64) float64,
) {
	ndim := len(outShape)
	outStrides := outShape.Strides()
	aStrides := broadcastStrides(aShape, ndim)
	bStrides := broadcastStrides(bShape, ndim)

	for outOff := range dst {
		rem := outOff
		aOff, bOff := 0, 0
		for d := 0; d < ndim; d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			aOff += idx * aStrides[d]
			bOff += idx * bStrides[d]
		}
		dst[outOff] = T(f(float64(a[aOff]), float64(b[bOff])))
	}
}

// broadcastStrides right-aligns shape into ndim dimensions and zeroes the
// stride of every broadcast (size 1 or missing) dimension.
func broadcastStrides(shape tensor.Shape, ndim int) []int {
	strides := make([]int, ndim)
	real := shape.Strides()
	offset := ndim - len(shape)
	for i := 0; i < len(shape); i++ {
		if shape[i] == 1 {
			strides[offset+i] = 0
		} else {
			strides[offset+i] = real[i]
		}
	}
	return strides
}
