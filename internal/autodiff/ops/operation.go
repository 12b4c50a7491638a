// Package ops defines the differentiable operations recorded on the
// gradient tape. Each operation knows how to turn its output gradient
// into gradients for its inputs.
package ops

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// Operation is one recorded step of the forward pass.
type Operation interface {
	// Backward computes one gradient per input from the output gradient.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the forward-pass input tensors, matching the order
	// of Backward's result.
	Inputs() []*tensor.RawTensor

	// Output returns the forward-pass result tensor.
	Output() *tensor.RawTensor
}

// reduceGradient sums grad down to shape after broadcasting expanded it.
// Leading extra dimensions are summed away, then every dimension that was
// size 1 in the original shape is summed with keepDim.
func reduceGradient(grad *tensor.RawTensor, shape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(shape) {
		return grad
	}

	out := grad
	for len(out.Shape()) > len(shape) {
		out = backend.SumDim(out, 0, false)
	}
	for i, d := range shape {
		if d == 1 && out.Shape()[i] != 1 {
			out = backend.SumDim(out, i, true)
		}
	}
	return out
}
