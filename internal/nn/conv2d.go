package nn

import (
	"math/rand"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Conv2D is a 2D convolution layer over [N, C, H, W] inputs.
type Conv2D[B tensor.Backend] struct {
	Weight *tensor.Tensor[float32, B] // [F, C, KH, KW]
	Bias   *tensor.Tensor[float32, B] // [1, F, 1, 1], broadcast over the batch

	stride  int
	padding int
}

// NewConv2D creates a convolution layer with Xavier-initialized weights
// and zero bias.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize int, rng *rand.Rand, backend B) *Conv2D[B] {
	weightShape := tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}
	weight := tensor.Zeros[float32](weightShape, backend)
	fanIn, fanOut := convFans(weightShape)
	XavierUniform(weight, fanIn, fanOut, rng)

	return &Conv2D[B]{
		Weight:  weight,
		Bias:    tensor.Zeros[float32](tensor.Shape{1, outChannels, 1, 1}, backend),
		stride:  1,
		padding: 0,
	}
}

// WithStride sets the stride, returning the layer for chaining.
func (c *Conv2D[B]) WithStride(stride int) *Conv2D[B] {
	c.stride = stride
	return c
}

// WithPadding sets the padding, returning the layer for chaining.
func (c *Conv2D[B]) WithPadding(padding int) *Conv2D[B] {
	c.padding = padding
	return c
}

// Forward convolves the input and adds the bias.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	out := backend.Conv2D(input.Raw(), c.Weight.Raw(), c.stride, c.padding)
	out = backend.Add(out, c.Bias.Raw())
	return tensor.New[float32, B](out, backend)
}

// Parameters returns the weight and bias.
func (c *Conv2D[B]) Parameters() []*tensor.Tensor[float32, B] {
	return []*tensor.Tensor[float32, B]{c.Weight, c.Bias}
}
