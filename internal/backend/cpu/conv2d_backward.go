package cpu

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/parallel"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Conv2DInputBackward computes the gradient with respect to the convolution
// input by scattering outputGrad back through the kernel (a transposed
// convolution).
func (c *Backend) Conv2DInputBackward(
	outputGrad, kernel *tensor.RawTensor,
	inputShape tensor.Shape,
	stride, padding int,
) *tensor.RawTensor {
	gs, ks := outputGrad.Shape(), kernel.Shape()
	if len(gs) != 4 || len(ks) != 4 || len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d input backward: need 4D shapes, got %v, %v, %v", gs, ks, inputShape))
	}

	n, ch, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	f, kh, kw := ks[0], ks[2], ks[3]
	hOut, wOut := gs[2], gs[3]

	inputGrad := tensor.MustRaw(inputShape, outputGrad.DType(), c.device)
	switch outputGrad.DType() {
	case tensor.Float32:
		conv2dInputBackward(inputGrad.AsFloat32(), outputGrad.AsFloat32(), kernel.AsFloat32(),
			n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding)
	case tensor.Float64:
		conv2dInputBackward(inputGrad.AsFloat64(), outputGrad.AsFloat64(), kernel.AsFloat64(),
			n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding)
	default:
		panic("conv2d input backward: unsupported dtype")
	}
	return inputGrad
}

func conv2dInputBackward[T ~float32 | ~float64](
	inputGrad, outputGrad, kernel []T,
	n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding int,
) {
	parallel.For(n, func(batchStart, batchEnd int) {
		for batch := batchStart; batch < batchEnd; batch++ {
			gradBatch := outputGrad[batch*f*hOut*wOut : (batch+1)*f*hOut*wOut]
			inGradBatch := inputGrad[batch*ch*h*w : (batch+1)*ch*h*w]

			for oc := 0; oc < f; oc++ {
				kernelOC := kernel[oc*ch*kh*kw : (oc+1)*ch*kh*kw]
				gradPlane := gradBatch[oc*hOut*wOut : (oc+1)*hOut*wOut]

				for outH := 0; outH < hOut; outH++ {
					for outW := 0; outW < wOut; outW++ {
						g := gradPlane[outH*wOut+outW]
						if g == 0 {
							continue
						}
						for ic := 0; ic < ch; ic++ {
							kernelIC := kernelOC[ic*kh*kw : (ic+1)*kh*kw]
							inGradPlane := inGradBatch[ic*h*w : (ic+1)*h*w]
							for y := 0; y < kh; y++ {
								srcH := outH*stride - padding + y
								if srcH < 0 || srcH >= h {
									continue
								}
								for x := 0; x < kw; x++ {
									srcW := outW*stride - padding + x
									if srcW < 0 || srcW >= w {
										continue
									}
									inGradPlane[srcH*w+srcW] += g * kernelIC[y*kw+x]
								}
							}
						}
					}
				}
			}
		}
	})
}

// Conv2DKernelBackward computes the gradient with respect to the kernel by
// correlating the input with outputGrad.
func (c *Backend) Conv2DKernelBackward(
	input, outputGrad *tensor.RawTensor,
	kernelShape tensor.Shape,
	stride, padding int,
) *tensor.RawTensor {
	is, gs := input.Shape(), outputGrad.Shape()
	if len(is) != 4 || len(gs) != 4 || len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d kernel backward: need 4D shapes, got %v, %v, %v", is, gs, kernelShape))
	}

	n, ch, h, w := is[0], is[1], is[2], is[3]
	f, kh, kw := kernelShape[0], kernelShape[2], kernelShape[3]
	hOut, wOut := gs[2], gs[3]

	kernelGrad := tensor.MustRaw(kernelShape, outputGrad.DType(), c.device)
	switch outputGrad.DType() {
	case tensor.Float32:
		conv2dKernelBackward(kernelGrad.AsFloat32(), input.AsFloat32(), outputGrad.AsFloat32(),
			n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding)
	case tensor.Float64:
		conv2dKernelBackward(kernelGrad.AsFloat64(), input.AsFloat64(), outputGrad.AsFloat64(),
			n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding)
	default:
		panic("conv2d kernel backward: unsupported dtype")
	}
	return kernelGrad
}

func conv2dKernelBackward[T ~float32 | ~float64](
	kernelGrad, input, outputGrad []T,
	n, ch, h, w, f, kh, kw, hOut, wOut, stride, padding int,
) {
	// Parallel over output channels: each owns a disjoint gradient slice.
	parallel.For(f, func(ocStart, ocEnd int) {
		for oc := ocStart; oc < ocEnd; oc++ {
			gradSlice := kernelGrad[oc*ch*kh*kw : (oc+1)*ch*kh*kw]
			for ic := 0; ic < ch; ic++ {
				for y := 0; y < kh; y++ {
					for x := 0; x < kw; x++ {
						var sum T
						for batch := 0; batch < n; batch++ {
							inPlane := input[(batch*ch+ic)*h*w : (batch*ch+ic+1)*h*w]
							gradPlane := outputGrad[(batch*f+oc)*hOut*wOut : (batch*f+oc+1)*hOut*wOut]
							for outH := 0; outH < hOut; outH++ {
								srcH := outH*stride - padding + y
								if srcH < 0 || srcH >= h {
									continue
								}
								for outW := 0; outW < wOut; outW++ {
									srcW := outW*stride - padding + x
									if srcW < 0 || srcW >= w {
										continue
									}
									sum += inPlane[srcH*w+srcW] * gradPlane[outH*wOut+outW]
								}
							}
						}
						gradSlice[ic*kh*kw+y*kw+x] = sum
					}
				}
			}
		}
	})
}
