package nn

import (
	"math"
	"math/rand"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// XavierUniform fills t with samples from U(-limit, limit) where
// limit = sqrt(6 / (fanIn + fanOut)). Keeps activation variance stable
// across layers (Glorot & Bengio, 2010).
func XavierUniform[B tensor.Backend](t *tensor.Tensor[float32, B], fanIn, fanOut int, rng *rand.Rand) {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * limit
	}
}

// convFans computes fan-in and fan-out for a [F, C, KH, KW] kernel.
func convFans(shape tensor.Shape) (fanIn, fanOut int) {
	receptive := shape[2] * shape[3]
	return shape[1] * receptive, shape[0] * receptive
}
