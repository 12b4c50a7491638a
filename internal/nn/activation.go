package nn

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// ReLU is the rectified linear activation layer.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies max(x, 0) using the backend's fused kernel.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	rb, ok := any(backend).(tensor.ReLUBackend)
	if !ok {
		panic(fmt.Sprintf("backend %s does not implement ReLU", backend.Name()))
	}
	return tensor.New[float32, B](rb.ReLU(input.Raw()), backend)
}

// Parameters returns nil.
func (r *ReLU[B]) Parameters() []*tensor.Tensor[float32, B] {
	return nil
}
