package tensor

// Backend is the contract every compute device implements. Operations take
// and return RawTensors so backends stay free of generics; the typed
// Tensor[T, B] facade wraps them.
//
// Elementwise binary ops follow NumPy broadcasting. Kernels panic on shape
// or dtype violations: those are programmer errors, not runtime conditions.
type Backend interface {
	// Name identifies the backend ("cpu", "autodiff(cpu)", ...).
	Name() string

	// Device reports where this backend allocates tensors.
	Device() Device

	// Elementwise binary ops with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar ops.
	AddScalar(a *RawTensor, scalar float64) *RawTensor
	MulScalar(a *RawTensor, scalar float64) *RawTensor

	// Elementwise math.
	Exp(a *RawTensor) *RawTensor
	Log(a *RawTensor) *RawTensor
	Sqrt(a *RawTensor) *RawTensor

	// MatMul multiplies [M, K] x [K, N] into [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D convolves input [N, C, H, W] with kernel [F, C, KH, KW].
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Conv2DInputBackward computes the gradient with respect to the
	// convolution input (a transposed convolution of the output gradient).
	Conv2DInputBackward(outputGrad, kernel *RawTensor, inputShape Shape, stride, padding int) *RawTensor

	// Conv2DKernelBackward computes the gradient with respect to the
	// convolution kernel.
	Conv2DKernelBackward(input, outputGrad *RawTensor, kernelShape Shape, stride, padding int) *RawTensor

	// MaxPool2D pools input [N, C, H, W] and returns the pooled tensor
	// plus the flat argmax index of each pooling window, which the
	// backward pass uses to route gradients.
	MaxPool2D(input *RawTensor, kernelSize, stride int) (*RawTensor, *RawTensor)

	// MaxPool2DBackward scatters the output gradient back to the positions
	// recorded in maxIndices.
	MaxPool2DBackward(outputGrad, maxIndices *RawTensor, inputShape Shape, kernelSize, stride int) *RawTensor

	// Shape ops.
	Reshape(a *RawTensor, shape Shape) *RawTensor
	Transpose(a *RawTensor, axes ...int) *RawTensor

	// Softmax along dim (negative dims count from the end).
	Softmax(a *RawTensor, dim int) *RawTensor

	// Reductions.
	Sum(a *RawTensor) *RawTensor
	SumDim(a *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(a *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(a *RawTensor, dim int) *RawTensor
}

// ReLUBackend is implemented by backends with a fused ReLU kernel.
type ReLUBackend interface {
	ReLU(a *RawTensor) *RawTensor
}

// CrossEntropyBackend is implemented by backends with a fused
// softmax + categorical cross-entropy kernel over one-hot targets.
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *RawTensor) *RawTensor
}
