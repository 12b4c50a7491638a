package cpu

import (
	"fmt"
	"math"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Softmax applies softmax along dim with max subtraction for stability.
func (c *Backend) Softmax(a *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := a.Shape()
	dim = normalizeDim(dim, len(shape))

	out := tensor.MustRaw(shape, a.DType(), c.device)

	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	n := shape[dim]

	switch a.DType() {
	case tensor.Float32:
		softmaxSlices(out.AsFloat32(), a.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		softmaxSlices(out.AsFloat64(), a.AsFloat64(), outer, n, inner)
	default:
		panic("softmax: unsupported dtype")
	}
	return out
}

func softmaxSlices[T ~float32 | ~float64](dst, src []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inner + in

			maxVal := src[base]
			for k := 1; k < n; k++ {
				if v := src[base+k*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float64
			for k := 0; k < n; k++ {
				e := math.Exp(float64(src[base+k*inner] - maxVal))
				dst[base+k*inner] = T(e)
				sum += e
			}
			for k := 0; k < n; k++ {
				dst[base+k*inner] = T(float64(dst[base+k*inner]) / sum)
			}
		}
	}
}

// CrossEntropy computes mean categorical cross-entropy between logits
// [N, C] and one-hot targets [N, C] in a single fused kernel using the
// log-sum-exp trick. Satisfies tensor.CrossEntropyBackend.
func (c *Backend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	ls, ts := logits.Shape(), targets.Shape()
	if len(ls) != 2 || !ls.Equal(ts) {
		panic(fmt.Sprintf("cross entropy: logits %v vs targets %v, want matching [N, C]", ls, ts))
	}

	out := tensor.MustRaw(tensor.Shape{1}, logits.DType(), c.device)
	switch logits.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] = float32(crossEntropyMean(logits.AsFloat32(), targets.AsFloat32(), ls[0], ls[1]))
	case tensor.Float64:
		out.AsFloat64()[0] = crossEntropyMean(logits.AsFloat64(), targets.AsFloat64(), ls[0], ls[1])
	default:
		panic("cross entropy: unsupported dtype")
	}
	return out
}

func crossEntropyMean[T ~float32 | ~float64](logits, targets []T, batch, classes int) float64 {
	var total float64
	for n := 0; n < batch; n++ {
		row := logits[n*classes : (n+1)*classes]
		tgt := targets[n*classes : (n+1)*classes]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logSumExp := float64(maxVal) + math.Log(sumExp)

		// -sum(y * logsoftmax(x)) over the row.
		for c, y := range tgt {
			if y != 0 {
				total += float64(y) * (logSumExp - float64(row[c]))
			}
		}
	}
	return total / float64(batch)
}
