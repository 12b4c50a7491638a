package cpu

import (
	"math"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// AddScalar returns a + scalar.
func (c *Backend) AddScalar(a *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return c.unary(a, func(x float64) float64 { return x + scalar })
}

// MulScalar returns a * scalar.
func (c *Backend) MulScalar(a *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return c.unary(a, func(x float64) float64 { return x * scalar })
}

// Exp returns e^a elementwise.
func (c *Backend) Exp(a *tensor.RawTensor) *tensor.RawTensor {
	return c.unary(a, math.Exp)
}

// Log returns the natural logarithm elementwise.
func (c *Backend) Log(a *tensor.RawTensor) *tensor.RawTensor {
	return c.unary(a, math.Log)
}

// Sqrt returns the square root elementwise.
func (c *Backend) Sqrt(a *tensor.RawTensor) *tensor.RawTensor {
	return c.unary(a, math.Sqrt)
}

// ReLU returns max(x, 0) elementwise. Satisfies tensor.ReLUBackend.
func (c *Backend) ReLU(a *tensor.RawTensor) *tensor.RawTensor {
	return c.unary(a, func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0
	})
}

func (c *Backend) unary(a *tensor.RawTensor, f func(x float64) float64) *tensor.RawTensor {
	if a.IsUnique() {
		switch a.DType() {
		case tensor.Float32:
			unaryInplace(a.AsFloat32(), f)
		case tensor.Float64:
			unaryInplace(a.AsFloat64(), f)
		case tensor.Int32:
			unaryInplace(a.AsInt32(), f)
		}
		return a
	}

	out := tensor.MustRaw(a.Shape(), a.DType(), c.device)
	switch a.DType() {
	case tensor.Float32:
		unaryOut(out.AsFloat32(), a.AsFloat32(), f)
	case tensor.Float64:
		unaryOut(out.AsFloat64(), a.AsFloat64(), f)
	case tensor.Int32:
		unaryOut(out.AsInt32(), a.AsInt32(), f)
	}
	return out
}

func unaryInplace[T number](a []T, f func(x float64) float64) {
	for i := range a {
		a[i] = T(f(float64(a[i])))
	}
}

func unaryOut[T number](dst, a []T, f func(x float64) float64) {
	for i := range dst {
		dst[i] = T(f(float64(a[i])))
	}
}
