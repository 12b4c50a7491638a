// Package autodiff adds reverse-mode automatic differentiation to any
// compute backend with a decorator.
//
// Backend[B] wraps an inner backend, executes every operation on it, and
// records the differentiable ones on a GradientTape. Calling
// Tape().Backward replays the tape in reverse and returns gradients keyed
// by RawTensor identity.
//
//	be := autodiff.New(cpu.New())
//	be.Tape().StartRecording()
//	loss := be.CrossEntropy(logits, targets)
//	grads := be.Tape().Backward(ones, be)
package autodiff

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/autodiff/ops"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// Backend decorates an inner backend with gradient recording.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps backend with gradient recording.
func New[B tensor.Backend](backend B) *Backend[B] {
	return &Backend[B]{inner: backend, tape: NewGradientTape()}
}

// Tape returns the gradient tape for recording control and backward passes.
func (b *Backend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *Backend[B]) Inner() B {
	return b.inner
}

// Name returns the decorated backend name.
func (b *Backend[B]) Name() string {
	return "autodiff(" + b.inner.Name() + ")"
}

// Device returns the inner backend's device.
func (b *Backend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add records an elementwise addition.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	// Pin both inputs: an inplace kernel would overwrite values the
	// backward pass still needs.
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, out))
	return out
}

// Sub records an elementwise subtraction.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, out))
	return out
}

// Mul records an elementwise multiplication.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, out))
	return out
}

// Div records an elementwise division.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Div(x, y)
	b.tape.Record(ops.NewDivOp(x, y, out))
	return out
}

// AddScalar records a scalar shift.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.AddScalar(x, scalar)
	b.tape.Record(ops.NewShiftOp(x, out))
	return out
}

// MulScalar records a scalar scale.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.MulScalar(x, scalar)
	b.tape.Record(ops.NewScaleOp(x, out, scalar))
	return out
}

// Exp passes through without recording; it is used by optimizer math
// outside the training graph.
func (b *Backend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.inner.Exp(x)
}

// Log passes through without recording.
func (b *Backend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.inner.Log(x)
}

// Sqrt passes through without recording.
func (b *Backend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.inner.Sqrt(x)
}

// MatMul records a matrix multiplication.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.MatMul(x, y)
	b.tape.Record(ops.NewMatMulOp(x, y, out))
	return out
}

// Conv2D records a 2D convolution.
func (b *Backend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()

	out := b.inner.Conv2D(input, kernel, stride, padding)
	b.tape.Record(ops.NewConv2DOp(input, kernel, out, stride, padding))
	return out
}

// Conv2DInputBackward passes through; gradient kernels are not themselves
// differentiated.
func (b *Backend[B]) Conv2DInputBackward(outputGrad, kernel *tensor.RawTensor, inputShape tensor.Shape, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(outputGrad, kernel, inputShape, stride, padding)
}

// Conv2DKernelBackward passes through.
func (b *Backend[B]) Conv2DKernelBackward(input, outputGrad *tensor.RawTensor, kernelShape tensor.Shape, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, outputGrad, kernelShape, stride, padding)
}

// MaxPool2D records a max pooling operation together with its argmax
// indices for the backward pass.
func (b *Backend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, *tensor.RawTensor) {
	defer input.ForceNonUnique()()

	out, indices := b.inner.MaxPool2D(input, kernelSize, stride)
	b.tape.Record(ops.NewMaxPool2DOp(input, out, indices, kernelSize, stride))
	return out, indices
}

// MaxPool2DBackward passes through.
func (b *Backend[B]) MaxPool2DBackward(outputGrad, maxIndices *tensor.RawTensor, inputShape tensor.Shape, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(outputGrad, maxIndices, inputShape, kernelSize, stride)
}

// Reshape records a shape change.
func (b *Backend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := b.inner.Reshape(x, shape)
	b.tape.Record(ops.NewReshapeOp(x, out))
	return out
}

// Transpose records a dimension permutation.
func (b *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := b.inner.Transpose(x, axes...)

	if len(axes) == 0 {
		ndim := len(x.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	b.tape.Record(ops.NewTransposeOp(x, out, axes))
	return out
}

// Softmax records a softmax along dim.
func (b *Backend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.Softmax(x, dim)
	if dim < 0 {
		dim += len(x.Shape())
	}
	b.tape.Record(ops.NewSoftmaxOp(x, out, dim))
	return out
}

// Sum passes through without recording; reductions here serve metrics.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Sum(x)
}

// SumDim passes through without recording.
func (b *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.inner.SumDim(x, dim, keepDim)
}

// MeanDim passes through without recording.
func (b *Backend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.inner.MeanDim(x, dim, keepDim)
}

// Argmax passes through without recording.
func (b *Backend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// ReLU records a rectifier. The inner backend must provide a fused kernel.
func (b *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	relu, ok := any(b.inner).(tensor.ReLUBackend)
	if !ok {
		panic(fmt.Sprintf("backend %s does not implement ReLU", b.inner.Name()))
	}

	defer x.ForceNonUnique()()

	out := relu.ReLU(x)
	b.tape.Record(ops.NewReLUOp(x, out))
	return out
}

// CrossEntropy records a fused softmax + categorical cross-entropy between
// logits and one-hot targets. The inner backend must provide the kernel.
func (b *Backend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	ce, ok := any(b.inner).(tensor.CrossEntropyBackend)
	if !ok {
		panic(fmt.Sprintf("backend %s does not implement CrossEntropy", b.inner.Name()))
	}

	defer logits.ForceNonUnique()()
	defer targets.ForceNonUnique()()

	out := ce.CrossEntropy(logits, targets)
	if b.tape.IsRecording() {
		softmax := b.inner.Softmax(logits, -1)
		b.tape.Record(ops.NewCrossEntropyOp(logits, targets, out, softmax))
	}
	return out
}
