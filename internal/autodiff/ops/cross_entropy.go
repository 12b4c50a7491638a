package ops

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// CrossEntropyOp records loss = mean categorical cross-entropy between
// logits [N, C] and one-hot targets [N, C]. The softmax of the logits is
// saved in the forward pass so the backward pass is a single expression:
//
//	dlogits = (softmax - targets) * grad / N
//
// Targets receive no gradient.
type CrossEntropyOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	softmax *tensor.RawTensor
}

// NewCrossEntropyOp creates a CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output, softmax *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		inputs:  []*tensor.RawTensor{logits, targets},
		output:  output,
		softmax: softmax,
	}
}

// Backward computes the logits gradient from the saved softmax.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	targets := op.inputs[1]
	batch := op.inputs[0].Shape()[0]

	diff := backend.Sub(op.softmax.Clone(), targets)
	scale := 1.0 / float64(batch)

	var grad *tensor.RawTensor
	switch outputGrad.DType() {
	case tensor.Float32:
		grad = backend.MulScalar(diff, float64(outputGrad.AsFloat32()[0])*scale)
	case tensor.Float64:
		grad = backend.MulScalar(diff, outputGrad.AsFloat64()[0]*scale)
	default:
		panic("cross entropy backward: unsupported dtype")
	}

	return []*tensor.RawTensor{grad, nil}
}

func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *CrossEntropyOp) Output() *tensor.RawTensor   { return op.output }
