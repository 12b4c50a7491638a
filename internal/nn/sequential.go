package nn

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// Sequential chains layers, feeding each one's output to the next.
type Sequential[B tensor.Backend] struct {
	layers []Module[B]
}

// NewSequential creates a container around the given layers.
func NewSequential[B tensor.Backend](layers ...Module[B]) *Sequential[B] {
	return &Sequential[B]{layers: layers}
}

// Add appends a layer.
func (s *Sequential[B]) Add(layer Module[B]) {
	s.layers = append(s.layers, layer)
}

// Forward runs the input through every layer in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input
	for _, layer := range s.layers {
		out = layer.Forward(out)
	}
	return out
}

// Parameters collects the parameters of all layers.
func (s *Sequential[B]) Parameters() []*tensor.Tensor[float32, B] {
	var params []*tensor.Tensor[float32, B]
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// SetTraining propagates the mode to every mode-aware layer.
func (s *Sequential[B]) SetTraining(training bool) {
	for _, layer := range s.layers {
		SetTraining(layer, training)
	}
}
