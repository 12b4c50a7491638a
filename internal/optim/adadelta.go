package optim

import (
	"math"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Adadelta implements the Adadelta optimizer (Zeiler, 2012). Per-weight
// step sizes adapt from running averages of squared gradients and squared
// updates, so the nominal learning rate is usually left at 1.
type Adadelta struct {
	params []*tensor.RawTensor
	lr     float64
	rho    float64
	eps    float64

	accGrad   map[*tensor.RawTensor][]float32
	accUpdate map[*tensor.RawTensor][]float32
}

// NewAdadelta creates an Adadelta optimizer with rho=0.95 and eps=1e-6.
func NewAdadelta(params []*tensor.RawTensor, lr float64) *Adadelta {
	return &Adadelta{
		params:    params,
		lr:        lr,
		rho:       0.95,
		eps:       1e-6,
		accGrad:   make(map[*tensor.RawTensor][]float32),
		accUpdate: make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies one Adadelta update to every parameter with a gradient.
func (a *Adadelta) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range a.params {
		grad, ok := grads[p]
		if !ok {
			continue
		}
		pd, gd := p.AsFloat32(), grad.AsFloat32()

		eg, ok := a.accGrad[p]
		if !ok {
			eg = make([]float32, len(pd))
			a.accGrad[p] = eg
		}
		ed, ok := a.accUpdate[p]
		if !ok {
			ed = make([]float32, len(pd))
			a.accUpdate[p] = ed
		}

		for i := range pd {
			g := float64(gd[i])

			egi := a.rho*float64(eg[i]) + (1-a.rho)*g*g
			eg[i] = float32(egi)

			update := math.Sqrt(float64(ed[i])+a.eps) / math.Sqrt(egi+a.eps) * g

			edi := a.rho*float64(ed[i]) + (1-a.rho)*update*update
			ed[i] = float32(edi)

			pd[i] -= float32(a.lr * update)
		}
	}
}

// LearningRate returns the configured learning rate.
func (a *Adadelta) LearningRate() float64 {
	return a.lr
}
