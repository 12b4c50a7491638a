package ops

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// Conv2DOp records output = conv2d(input, kernel, stride, padding).
type Conv2DOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
}

// NewConv2DOp creates a Conv2DOp.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{
		inputs:  []*tensor.RawTensor{input, kernel},
		output:  output,
		stride:  stride,
		padding: padding,
	}
}

// Backward delegates to the backend's convolution gradient kernels.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := op.inputs[0], op.inputs[1]

	gradInput := backend.Conv2DInputBackward(outputGrad, kernel, input.Shape(), op.stride, op.padding)
	gradKernel := backend.Conv2DKernelBackward(input, outputGrad, kernel.Shape(), op.stride, op.padding)

	return []*tensor.RawTensor{gradInput, gradKernel}
}

func (op *Conv2DOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *Conv2DOp) Output() *tensor.RawTensor   { return op.output }

// MaxPool2DOp records output = maxpool2d(input). The argmax indices from
// the forward pass route gradients to the winning positions.
type MaxPool2DOp struct {
	inputs     []*tensor.RawTensor
	output     *tensor.RawTensor
	maxIndices *tensor.RawTensor
	kernelSize int
	stride     int
}

// NewMaxPool2DOp creates a MaxPool2DOp.
func NewMaxPool2DOp(input, output, maxIndices *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{
		inputs:     []*tensor.RawTensor{input},
		output:     output,
		maxIndices: maxIndices,
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// Backward scatters the gradient to the recorded argmax positions.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := backend.MaxPool2DBackward(outputGrad, op.maxIndices, op.inputs[0].Shape(), op.kernelSize, op.stride)
	return []*tensor.RawTensor{grad}
}

func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MaxPool2DOp) Output() *tensor.RawTensor   { return op.output }
