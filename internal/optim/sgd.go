package optim

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	params   []*tensor.RawTensor
	lr       float64
	momentum float64

	velocity map[*tensor.RawTensor][]float32
}

// NewSGD creates an SGD optimizer. momentum of 0 disables the velocity
// term.
func NewSGD(params []*tensor.RawTensor, lr, momentum float64) *SGD {
	return &SGD{
		params:   params,
		lr:       lr,
		momentum: momentum,
		velocity: make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies one update to every parameter with a gradient.
func (s *SGD) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range s.params {
		grad, ok := grads[p]
		if !ok {
			continue
		}
		pd, gd := p.AsFloat32(), grad.AsFloat32()

		if s.momentum == 0 {
			for i := range pd {
				pd[i] -= float32(s.lr) * gd[i]
			}
			continue
		}

		v, ok := s.velocity[p]
		if !ok {
			v = make([]float32, len(pd))
			s.velocity[p] = v
		}
		for i := range pd {
			v[i] = float32(s.momentum)*v[i] - float32(s.lr)*gd[i]
			pd[i] += v[i]
		}
	}
}

// LearningRate returns the configured learning rate.
func (s *SGD) LearningRate() float64 {
	return s.lr
}
