package nn

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// Flatten collapses every dimension after the batch into one.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes [N, d1, d2, ...] into [N, d1*d2*...].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	features := 1
	for _, d := range shape[1:] {
		features *= d
	}
	backend := input.Backend()
	out := backend.Reshape(input.Raw(), tensor.Shape{shape[0], features})
	return tensor.New[float32, B](out, backend)
}

// Parameters returns nil.
func (f *Flatten[B]) Parameters() []*tensor.Tensor[float32, B] {
	return nil
}
