// Package optim implements gradient descent optimizers.
//
// Optimizers hold the parameter tensors they update. Step takes the
// gradient map produced by the autodiff tape, keyed by RawTensor
// identity; parameters without a gradient in the map are skipped.
package optim

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// Optimizer updates parameters from a gradient map.
type Optimizer interface {
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)
	LearningRate() float64
}
