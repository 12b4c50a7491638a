package nn

import (
	"math/rand"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Dense is a fully connected layer: output = input @ W + b.
type Dense[B tensor.Backend] struct {
	Weight *tensor.Tensor[float32, B] // [In, Out]
	Bias   *tensor.Tensor[float32, B] // [Out], broadcast over the batch
}

// NewDense creates a fully connected layer with Xavier-initialized
// weights and zero bias.
func NewDense[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Dense[B] {
	weight := tensor.Zeros[float32](tensor.Shape{inFeatures, outFeatures}, backend)
	XavierUniform(weight, inFeatures, outFeatures, rng)

	return &Dense[B]{
		Weight: weight,
		Bias:   tensor.Zeros[float32](tensor.Shape{outFeatures}, backend),
	}
}

// Forward applies the affine transformation to a [N, In] input.
func (d *Dense[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	out := backend.MatMul(input.Raw(), d.Weight.Raw())
	out = backend.Add(out, d.Bias.Raw())
	return tensor.New[float32, B](out, backend)
}

// Parameters returns the weight and bias.
func (d *Dense[B]) Parameters() []*tensor.Tensor[float32, B] {
	return []*tensor.Tensor[float32, B]{d.Weight, d.Bias}
}
