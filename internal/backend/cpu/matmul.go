package cpu

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/choudary21/WML-CE-LMS/internal/parallel"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Kernel tuning, set once from CPU features. Wider vector units get a
// bigger block so the inner loops stay in registers longer, and a higher
// parallel threshold since they finish small problems before goroutine
// fan-out pays for itself.
var (
	matmulBlock       = 32
	parallelThreshold = 64 * 64 * 64
)

func init() {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		matmulBlock = 128
	case cpuid.CPU.Supports(cpuid.AVX2):
		matmulBlock = 64
	}
	parallelThreshold = matmulBlock * matmulBlock * 64
}

// MatMul multiplies a [M, K] by b [K, N] into [M, N].
// Blocked for cache locality, row-parallel for large problems.
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("matmul: need 2D tensors, got %v x %v", as, bs))
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("matmul: inner dimensions differ: %v x %v", as, bs))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k, n := as[0], as[1], bs[1]
	out := tensor.MustRaw(tensor.Shape{m, n}, a.DType(), c.device)

	switch a.DType() {
	case tensor.Float32:
		matmulBlocked(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	case tensor.Float64:
		matmulBlocked(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n)
	default:
		panic("matmul: unsupported dtype")
	}
	return out
}

func matmulBlocked[T ~float32 | ~float64](dst, a, b []T, m, k, n int) {
	if m*k*n >= parallelThreshold {
		parallel.For(m, func(rowStart, rowEnd int) {
			matmulRows(dst, a, b, rowStart, rowEnd, k, n)
		})
		return
	}
	matmulRows(dst, a, b, 0, m, k, n)
}

// matmulRows computes rows [rowStart, rowEnd) of dst with ikj loop order
// and blocking over k and n.
func matmulRows[T ~float32 | ~float64](dst, a, b []T, rowStart, rowEnd, k, n int) {
	bs := matmulBlock
	for i := rowStart; i < rowEnd; i++ {
		dstRow := dst[i*n : (i+1)*n]
		for kb := 0; kb < k; kb += bs {
			kEnd := kb + bs
			if kEnd > k {
				kEnd = k
			}
			for kk := kb; kk < kEnd; kk++ {
				av := a[i*k+kk]
				if av == 0 {
					continue
				}
				bRow := b[kk*n : (kk+1)*n]
				for j, bv := range bRow {
					dstRow[j] += av * bv
				}
			}
		}
	}
}
