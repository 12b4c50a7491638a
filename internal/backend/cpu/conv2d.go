package cpu

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/parallel"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Conv2D convolves input [N, C, H, W] with kernel [F, C, KH, KW] into
// [N, F, HOut, WOut] via im2col + matmul. Batches run in parallel.
func (c *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("conv2d: need 4D tensors, got %v and %v", is, ks))
	}
	if is[1] != ks[1] {
		panic(fmt.Sprintf("conv2d: channel mismatch: input %v vs kernel %v", is, ks))
	}
	if stride < 1 || padding < 0 {
		panic(fmt.Sprintf("conv2d: bad stride %d / padding %d", stride, padding))
	}

	n, ch, h, w := is[0], is[1], is[2], is[3]
	f, kh, kw := ks[0], ks[2], ks[3]
	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut < 1 || wOut < 1 {
		panic(fmt.Sprintf("conv2d: kernel %v does not fit input %v", ks, is))
	}

	out := tensor.MustRaw(tensor.Shape{n, f, hOut, wOut}, input.DType(), c.device)
	switch input.DType() {
	case tensor.Float32:
		conv2dForward(out.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding)
	case tensor.Float64:
		conv2dForward(out.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding)
	default:
		panic("conv2d: unsupported dtype")
	}
	return out
}

func conv2dForward[T ~float32 | ~float64](
	dst, input, kernel []T,
	n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding int,
) {
	colRows := ch * kh * kw
	colCols := hOut * wOut

	parallel.For(n, func(batchStart, batchEnd int) {
		cols := make([]T, colRows*colCols)
		for batch := batchStart; batch < batchEnd; batch++ {
			im2col(cols, input[batch*ch*h*w:(batch+1)*ch*h*w],
				ch, h, w, kh, kw, hOut, wOut, stride, padding)

			// [F, colRows] x [colRows, colCols] -> [F, colCols]
			dstBatch := dst[batch*f*colCols : (batch+1)*f*colCols]
			for i := range dstBatch {
				dstBatch[i] = 0
			}
			matmulRows(dstBatch, kernel, cols, 0, f, colRows, colCols)
		}
	})
}

// im2col unfolds one image [C, H, W] into a [C*KH*KW, HOut*WOut] matrix.
// Out-of-bounds (padding) positions stay zero.
func im2col[T ~float32 | ~float64](
	cols, img []T,
	ch, h, w, kh, kw, hOut, wOut, stride, padding int,
) {
	colCols := hOut * wOut
	row := 0
	for c := 0; c < ch; c++ {
		plane := img[c*h*w : (c+1)*h*w]
		for y := 0; y < kh; y++ {
			for x := 0; x < kw; x++ {
				colRow := cols[row*colCols : (row+1)*colCols]
				row++
				for outH := 0; outH < hOut; outH++ {
					srcH := outH*stride - padding + y
					for outW := 0; outW < wOut; outW++ {
						srcW := outW*stride - padding + x
						if srcH >= 0 && srcH < h && srcW >= 0 && srcW < w {
							colRow[outH*wOut+outW] = plane[srcH*w+srcW]
						} else {
							colRow[outH*wOut+outW] = 0
						}
					}
				}
			}
		}
	}
}
