package optim

import (
	"math"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Adam implements the Adam optimizer (Kingma & Ba, 2015) with bias
// correction.
type Adam struct {
	params []*tensor.RawTensor
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64

	step int
	m    map[*tensor.RawTensor][]float32
	v    map[*tensor.RawTensor][]float32
}

// NewAdam creates an Adam optimizer with the conventional defaults
// beta1=0.9, beta2=0.999, eps=1e-8.
func NewAdam(params []*tensor.RawTensor, lr float64) *Adam {
	return &Adam{
		params: params,
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		m:      make(map[*tensor.RawTensor][]float32),
		v:      make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies one Adam update to every parameter with a gradient.
func (a *Adam) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++
	correction1 := 1 - math.Pow(a.beta1, float64(a.step))
	correction2 := 1 - math.Pow(a.beta2, float64(a.step))

	for _, p := range a.params {
		grad, ok := grads[p]
		if !ok {
			continue
		}
		pd, gd := p.AsFloat32(), grad.AsFloat32()

		m, ok := a.m[p]
		if !ok {
			m = make([]float32, len(pd))
			a.m[p] = m
		}
		v, ok := a.v[p]
		if !ok {
			v = make([]float32, len(pd))
			a.v[p] = v
		}

		for i := range pd {
			g := float64(gd[i])
			mi := a.beta1*float64(m[i]) + (1-a.beta1)*g
			vi := a.beta2*float64(v[i]) + (1-a.beta2)*g*g
			m[i] = float32(mi)
			v[i] = float32(vi)

			mHat := mi / correction1
			vHat := vi / correction2
			pd[i] -= float32(a.lr * mHat / (math.Sqrt(vHat) + a.eps))
		}
	}
}

// LearningRate returns the configured learning rate.
func (a *Adam) LearningRate() float64 {
	return a.lr
}
