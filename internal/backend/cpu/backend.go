// Package cpu implements the portable CPU compute backend.
package cpu

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Backend implements tensor.Backend on the host CPU.
type Backend struct {
	device tensor.Device
}

// New creates a CPU backend.
func New() *Backend {
	return &Backend{device: tensor.CPU}
}

// Name returns the backend name.
func (c *Backend) Name() string {
	return "cpu"
}

// Device returns the compute device.
func (c *Backend) Device() tensor.Device {
	return c.device
}

// Reshape returns a zero-copy view of t under newShape.
func (c *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	out, err := t.WithShape(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return out
}

// Transpose permutes dimensions. With no axes it reverses them.
func (c *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: %d axes for %dD tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: bad axes %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}
	out := tensor.MustRaw(newShape, t.DType(), c.device)

	switch t.DType() {
	case tensor.Float32:
		transposeData(out.AsFloat32(), t.AsFloat32(), shape, axes)
	case tensor.Float64:
		transposeData(out.AsFloat64(), t.AsFloat64(), shape, axes)
	case tensor.Int32:
		transposeData(out.AsInt32(), t.AsInt32(), shape, axes)
	default:
		panic("transpose: unsupported dtype")
	}
	return out
}

func transposeData[T number](dst, src []T, srcShape tensor.Shape, axes []int) {
	ndim := len(srcShape)
	srcStrides := srcShape.Strides()

	// Strides of the destination expressed in source-dimension order.
	dstShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		dstShape[i] = srcShape[ax]
	}
	dstStrides := dstShape.Strides()

	idx := make([]int, ndim)
	for srcOff := range src {
		rem := srcOff
		for d := 0; d < ndim; d++ {
			idx[d] = rem / srcStrides[d]
			rem %= srcStrides[d]
		}
		dstOff := 0
		for i, ax := range axes {
			dstOff += idx[ax] * dstStrides[i]
		}
		dst[dstOff] = src[srcOff]
	}
}
