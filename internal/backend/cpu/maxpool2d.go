package cpu

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/parallel"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// MaxPool2D pools input [N, C, H, W] with a square window, returning the
// pooled tensor [N, C, HOut, WOut] and an Int32 tensor of the same shape
// holding the flat in-plane index of each window's maximum.
func (c *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, *tensor.RawTensor) {
	is := input.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("maxpool2d: need 4D input, got %v", is))
	}
	if kernelSize < 1 || stride < 1 {
		panic(fmt.Sprintf("maxpool2d: bad kernel %d / stride %d", kernelSize, stride))
	}

	n, ch, h, w := is[0], is[1], is[2], is[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut < 1 || wOut < 1 {
		panic(fmt.Sprintf("maxpool2d: window %d does not fit input %v", kernelSize, is))
	}

	outShape := tensor.Shape{n, ch, hOut, wOut}
	out := tensor.MustRaw(outShape, input.DType(), c.device)
	indices := tensor.MustRaw(outShape, tensor.Int32, c.device)

	switch input.DType() {
	case tensor.Float32:
		maxPool(out.AsFloat32(), indices.AsInt32(), input.AsFloat32(),
			n, ch, h, w, hOut, wOut, kernelSize, stride)
	case tensor.Float64:
		maxPool(out.AsFloat64(), indices.AsInt32(), input.AsFloat64(),
			n, ch, h, w, hOut, wOut, kernelSize, stride)
	default:
		panic("maxpool2d: unsupported dtype")
	}
	return out, indices
}

func maxPool[T ~float32 | ~float64](
	dst []T, indices []int32, input []T,
	n, ch, h, w, hOut, wOut, kernelSize, stride int,
) {
	planes := n * ch
	parallel.For(planes, func(planeStart, planeEnd int) {
		for p := planeStart; p < planeEnd; p++ {
			inPlane := input[p*h*w : (p+1)*h*w]
			outPlane := dst[p*hOut*wOut : (p+1)*hOut*wOut]
			idxPlane := indices[p*hOut*wOut : (p+1)*hOut*wOut]

			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					hStart := outH * stride
					wStart := outW * stride

					best := inPlane[hStart*w+wStart]
					bestIdx := hStart*w + wStart
					for y := 0; y < kernelSize; y++ {
						rowBase := (hStart + y) * w
						for x := 0; x < kernelSize; x++ {
							if v := inPlane[rowBase+wStart+x]; v > best {
								best = v
								bestIdx = rowBase + wStart + x
							}
						}
					}
					outPlane[outH*wOut+outW] = best
					idxPlane[outH*wOut+outW] = int32(bestIdx)
				}
			}
		}
	})
}

// MaxPool2DBackward scatters outputGrad back to the winning positions
// recorded by MaxPool2D.
func (c *Backend) MaxPool2DBackward(
	outputGrad, maxIndices *tensor.RawTensor,
	inputShape tensor.Shape,
	kernelSize, stride int,
) *tensor.RawTensor {
	gs := outputGrad.Shape()
	if len(gs) != 4 || len(inputShape) != 4 {
		panic(fmt.Sprintf("maxpool2d backward: need 4D shapes, got %v and %v", gs, inputShape))
	}
	if !gs.Equal(maxIndices.Shape()) {
		panic(fmt.Sprintf("maxpool2d backward: grad %v vs indices %v", gs, maxIndices.Shape()))
	}

	h, w := inputShape[2], inputShape[3]
	hOut, wOut := gs[2], gs[3]

	inputGrad := tensor.MustRaw(inputShape, outputGrad.DType(), c.device)
	switch outputGrad.DType() {
	case tensor.Float32:
		maxPoolBackward(inputGrad.AsFloat32(), outputGrad.AsFloat32(), maxIndices.AsInt32(),
			gs[0]*gs[1], h, w, hOut, wOut)
	case tensor.Float64:
		maxPoolBackward(inputGrad.AsFloat64(), outputGrad.AsFloat64(), maxIndices.AsInt32(),
			gs[0]*gs[1], h, w, hOut, wOut)
	default:
		panic("maxpool2d backward: unsupported dtype")
	}
	return inputGrad
}

func maxPoolBackward[T ~float32 | ~float64](
	inputGrad, outputGrad []T, indices []int32,
	planes, h, w, hOut, wOut int,
) {
	parallel.For(planes, func(planeStart, planeEnd int) {
		for p := planeStart; p < planeEnd; p++ {
			gradPlane := outputGrad[p*hOut*wOut : (p+1)*hOut*wOut]
			idxPlane := indices[p*hOut*wOut : (p+1)*hOut*wOut]
			inGradPlane := inputGrad[p*h*w : (p+1)*h*w]

			for i, g := range gradPlane {
				// Overlapping windows accumulate.
				inGradPlane[idxPlane[i]] += g
			}
		}
	})
}
