// Package nn provides neural network layers built on the tensor backends.
package nn

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// Module is a layer or model: a forward transformation plus the learnable
// tensors it owns.
type Module[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*tensor.Tensor[float32, B]
}

// TrainingAware is implemented by layers whose forward pass differs
// between training and evaluation (dropout).
type TrainingAware interface {
	SetTraining(training bool)
}

// SetTraining switches a module tree between training and evaluation
// mode. Modules that don't care are left alone.
func SetTraining[B tensor.Backend](m Module[B], training bool) {
	if ta, ok := m.(TrainingAware); ok {
		ta.SetTraining(training)
	}
}
