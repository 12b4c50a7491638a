package cpu

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Sum reduces all elements into a single-element tensor.
func (c *Backend) Sum(a *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustRaw(tensor.Shape{1}, a.DType(), c.device)
	switch a.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] = sumAll(a.AsFloat32())
	case tensor.Float64:
		out.AsFloat64()[0] = sumAll(a.AsFloat64())
	case tensor.Int32:
		out.AsInt32()[0] = sumAll(a.AsInt32())
	default:
		panic("sum: unsupported dtype")
	}
	return out
}

func sumAll[T number](data []T) T {
	var s T
	for _, v := range data {
		s += v
	}
	return s
}

// SumDim sums along dim. Negative dims count from the end.
func (c *Backend) SumDim(a *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return c.reduceDim(a, dim, keepDim, false)
}

// MeanDim averages along dim. Negative dims count from the end.
func (c *Backend) MeanDim(a *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return c.reduceDim(a, dim, keepDim, true)
}

func (c *Backend) reduceDim(a *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := a.Shape()
	dim = normalizeDim(dim, len(shape))

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	out := tensor.MustRaw(outShape, a.DType(), c.device)

	// Collapse to [outer, dim, inner].
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	n := shape[dim]

	switch a.DType() {
	case tensor.Float32:
		reduceSlices(out.AsFloat32(), a.AsFloat32(), outer, n, inner, mean)
	case tensor.Float64:
		reduceSlices(out.AsFloat64(), a.AsFloat64(), outer, n, inner, mean)
	case tensor.Int32:
		reduceSlices(out.AsInt32(), a.AsInt32(), outer, n, inner, mean)
	default:
		panic("reduce: unsupported dtype")
	}
	return out
}

func reduceSlices[T number](dst, src []T, outer, n, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var s T
			base := o*n*inner + in
			for k := 0; k < n; k++ {
				s += src[base+k*inner]
			}
			if mean {
				s /= T(n)
			}
			dst[o*inner+in] = s
		}
	}
}

// Argmax returns the index of the maximum along dim as Int32, removing dim.
func (c *Backend) Argmax(a *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := a.Shape()
	dim = normalizeDim(dim, len(shape))

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		if i != dim {
			outShape = append(outShape, d)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}
	out := tensor.MustRaw(outShape, tensor.Int32, c.device)

	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	n := shape[dim]

	switch a.DType() {
	case tensor.Float32:
		argmaxSlices(out.AsInt32(), a.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		argmaxSlices(out.AsInt32(), a.AsFloat64(), outer, n, inner)
	case tensor.Int32:
		argmaxSlices(out.AsInt32(), a.AsInt32(), outer, n, inner)
	default:
		panic("argmax: unsupported dtype")
	}
	return out
}

func argmaxSlices[T number](dst []int32, src []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inner + in
			best := src[base]
			bestIdx := int32(0)
			for k := 1; k < n; k++ {
				if v := src[base+k*inner]; v > best {
					best = v
					bestIdx = int32(k)
				}
			}
			dst[o*inner+in] = bestIdx
		}
	}
}

func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("dim %d out of range for %dD tensor", dim, ndim))
	}
	return dim
}
