package nn

import (
	"fmt"
	"math/rand"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Dropout zeroes a fraction of activations during training and scales the
// survivors by 1/(1-rate) so evaluation needs no rescaling (inverted
// dropout). In evaluation mode it is the identity.
type Dropout[B tensor.Backend] struct {
	rate     float64
	training bool
	rng      *rand.Rand
}

// NewDropout creates a dropout layer. rate is the fraction dropped and
// must be in [0, 1).
func NewDropout[B tensor.Backend](rate float64, rng *rand.Rand) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("dropout: rate %v outside [0, 1)", rate))
	}
	return &Dropout[B]{rate: rate, rng: rng}
}

// SetTraining switches between training and evaluation behaviour.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Forward applies the dropout mask. The mask is a tensor multiply so the
// gradient tape routes the backward pass through the same mask.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.rate == 0 {
		return input
	}

	backend := input.Backend()
	mask := tensor.Zeros[float32](input.Shape(), backend)
	scale := float32(1 / (1 - d.rate))
	data := mask.Data()
	for i := range data {
		if d.rng.Float64() >= d.rate {
			data[i] = scale
		}
	}

	return tensor.New[float32, B](backend.Mul(input.Raw(), mask.Raw()), backend)
}

// Parameters returns nil.
func (d *Dropout[B]) Parameters() []*tensor.Tensor[float32, B] {
	return nil
}
