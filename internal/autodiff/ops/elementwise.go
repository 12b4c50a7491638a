package ops

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// AddOp records output = a + b.
type AddOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddOp creates an AddOp.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward passes the gradient through to both inputs, reducing over
// broadcast dimensions.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		reduceGradient(outputGrad, a.Shape(), backend),
		reduceGradient(outputGrad, b.Shape(), backend),
	}
}

func (op *AddOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *AddOp) Output() *tensor.RawTensor   { return op.output }

// SubOp records output = a - b.
type SubOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSubOp creates a SubOp.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward negates the gradient flowing to b.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	negGrad := backend.MulScalar(outputGrad.Clone(), -1)
	return []*tensor.RawTensor{
		reduceGradient(outputGrad, a.Shape(), backend),
		reduceGradient(negGrad, b.Shape(), backend),
	}
}

func (op *SubOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SubOp) Output() *tensor.RawTensor   { return op.output }

// MulOp records output = a * b.
type MulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMulOp creates a MulOp.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward applies the product rule: da = grad*b, db = grad*a.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Mul(outputGrad.Clone(), b)
	gradB := backend.Mul(outputGrad.Clone(), a)
	return []*tensor.RawTensor{
		reduceGradient(gradA, a.Shape(), backend),
		reduceGradient(gradB, b.Shape(), backend),
	}
}

func (op *MulOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MulOp) Output() *tensor.RawTensor   { return op.output }

// DivOp records output = a / b.
type DivOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewDivOp creates a DivOp.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward applies the quotient rule: da = grad/b, db = -grad*a/b^2.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	gradA := backend.Div(outputGrad.Clone(), b)

	bSquared := backend.Mul(b.Clone(), b)
	gradB := backend.Mul(outputGrad.Clone(), a)
	gradB = backend.Div(gradB, bSquared)
	gradB = backend.MulScalar(gradB, -1)

	return []*tensor.RawTensor{
		reduceGradient(gradA, a.Shape(), backend),
		reduceGradient(gradB, b.Shape(), backend),
	}
}

func (op *DivOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *DivOp) Output() *tensor.RawTensor   { return op.output }

// ScaleOp records output = a * scalar.
type ScaleOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	scalar float64
}

// NewScaleOp creates a ScaleOp.
func NewScaleOp(a, output *tensor.RawTensor, scalar float64) *ScaleOp {
	return &ScaleOp{inputs: []*tensor.RawTensor{a}, output: output, scalar: scalar}
}

// Backward scales the gradient by the same constant.
func (op *ScaleOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad.Clone(), op.scalar)}
}

func (op *ScaleOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ScaleOp) Output() *tensor.RawTensor   { return op.output }

// ShiftOp records output = a + scalar.
type ShiftOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewShiftOp creates a ShiftOp.
func NewShiftOp(a, output *tensor.RawTensor) *ShiftOp {
	return &ShiftOp{inputs: []*tensor.RawTensor{a}, output: output}
}

// Backward passes the gradient through unchanged.
func (op *ShiftOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad}
}

func (op *ShiftOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ShiftOp) Output() *tensor.RawTensor   { return op.output }
