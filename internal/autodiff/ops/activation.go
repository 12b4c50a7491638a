package ops

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// ReLUOp records output = max(input, 0).
type ReLUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{inputs: []*tensor.RawTensor{input}, output: output}
}

// Backward masks the gradient where the input was non-positive.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input := op.inputs[0]
	grad := tensor.MustRaw(input.Shape(), input.DType(), backend.Device())

	switch input.DType() {
	case tensor.Float32:
		in, g, out := input.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i := range in {
			if in[i] > 0 {
				out[i] = g[i]
			}
		}
	case tensor.Float64:
		in, g, out := input.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i := range in {
			if in[i] > 0 {
				out[i] = g[i]
			}
		}
	default:
		panic("relu backward: unsupported dtype")
	}
	return []*tensor.RawTensor{grad}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ReLUOp) Output() *tensor.RawTensor   { return op.output }

// SoftmaxOp records output = softmax(input, dim).
type SoftmaxOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSoftmaxOp creates a SoftmaxOp. dim is the resolved non-negative axis.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{inputs: []*tensor.RawTensor{input}, output: output, dim: dim}
}

// Backward uses the saved output: dx = y * (grad - sum(grad * y, dim)).
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output

	gy := backend.Mul(outputGrad.Clone(), y)
	dot := backend.SumDim(gy, op.dim, true)
	inner := backend.Sub(outputGrad.Clone(), dot)
	grad := backend.Mul(inner, y)

	return []*tensor.RawTensor{grad}
}

func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SoftmaxOp) Output() *tensor.RawTensor   { return op.output }
