package nn

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// MaxPool2D is a parameter-free max pooling layer with a square window.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
}

// NewMaxPool2D creates a pooling layer. A stride of 0 defaults to the
// window size (non-overlapping windows).
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int) *MaxPool2D[B] {
	if stride == 0 {
		stride = kernelSize
	}
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride}
}

// Forward pools the input.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	out, _ := backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride)
	return tensor.New[float32, B](out, backend)
}

// Parameters returns nil; pooling has no learnable state.
func (m *MaxPool2D[B]) Parameters() []*tensor.Tensor[float32, B] {
	return nil
}
