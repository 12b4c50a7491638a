package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choudary21/WML-CE-LMS/internal/backend/cpu"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

func raw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func onesLike(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r := raw(t, nil, shape)
	data := r.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return r
}

func TestNoRecordingWhenStopped(t *testing.T) {
	be := New(cpu.New())
	x := raw(t, []float32{1, 2}, tensor.Shape{2})

	be.Mul(x, x)
	assert.Equal(t, 0, be.Tape().NumOps())

	be.Tape().StartRecording()
	be.Mul(x, x)
	assert.Equal(t, 1, be.Tape().NumOps())

	be.Tape().Clear()
	assert.Equal(t, 0, be.Tape().NumOps())
	assert.True(t, be.Tape().IsRecording())
}

func TestMulGradientAccumulates(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	x := raw(t, []float32{2, 3}, tensor.Shape{2})
	y := be.Mul(x, x)

	grads := be.Tape().Backward(onesLike(t, tensor.Shape{2}), be)
	require.Contains(t, grads, x)

	// d(x*x)/dx = 2x
	assert.InDeltaSlice(t, []float32{4, 6}, grads[x].AsFloat32(), 1e-6)
	_ = y
}

func TestAddBroadcastGradientReduces(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := raw(t, []float32{10, 20, 30}, tensor.Shape{3})
	be.Add(x, bias)

	grads := be.Tape().Backward(onesLike(t, tensor.Shape{2, 3}), be)
	require.Contains(t, grads, bias)

	assert.Equal(t, tensor.Shape{3}, grads[bias].Shape())
	assert.InDeltaSlice(t, []float32{2, 2, 2}, grads[bias].AsFloat32(), 1e-6)
}

func TestMatMulGradient(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	a := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := raw(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	be.MatMul(a, b)

	grads := be.Tape().Backward(onesLike(t, tensor.Shape{2, 2}), be)
	require.Contains(t, grads, a)
	require.Contains(t, grads, b)

	// dL/dA = ones @ B^T, dL/dB = A^T @ ones
	assert.InDeltaSlice(t, []float32{11, 15, 11, 15}, grads[a].AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{4, 4, 6, 6}, grads[b].AsFloat32(), 1e-6)
}

func TestReLUGradientMasks(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	x := raw(t, []float32{-1, 2, -3, 4}, tensor.Shape{4})
	out := be.ReLU(x)
	assert.Equal(t, []float32{0, 2, 0, 4}, out.AsFloat32())

	grads := be.Tape().Backward(onesLike(t, tensor.Shape{4}), be)
	require.Contains(t, grads, x)
	assert.Equal(t, []float32{0, 1, 0, 1}, grads[x].AsFloat32())
}

func TestInplaceDoesNotCorruptInputs(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	x := raw(t, []float32{1, 2}, tensor.Shape{2})
	y := raw(t, []float32{3, 4}, tensor.Shape{2})
	out := be.Add(x, y)

	// Recorded inputs must survive the forward pass untouched.
	assert.NotSame(t, x, out)
	assert.Equal(t, []float32{1, 2}, x.AsFloat32())
}

func TestCrossEntropyGradient(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	// Uniform logits over 2 classes, one-hot target on class 0.
	logits := raw(t, []float32{0, 0}, tensor.Shape{1, 2})
	targets := raw(t, []float32{1, 0}, tensor.Shape{1, 2})
	loss := be.CrossEntropy(logits, targets)
	assert.InDelta(t, 0.6931, float64(loss.AsFloat32()[0]), 1e-3)

	grads := be.Tape().Backward(onesLike(t, tensor.Shape{1}), be)
	require.Contains(t, grads, logits)

	// softmax - y = [0.5-1, 0.5-0]
	assert.InDeltaSlice(t, []float32{-0.5, 0.5}, grads[logits].AsFloat32(), 1e-5)
	assert.NotContains(t, grads, targets)
}

func TestConvPoolGradientShapes(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	input := raw(t, make([]float32, 1*1*6*6), tensor.Shape{1, 1, 6, 6})
	for i := range input.AsFloat32() {
		input.AsFloat32()[i] = float32(i % 7)
	}
	kernel := onesLike(t, tensor.Shape{2, 1, 3, 3})

	conv := be.Conv2D(input, kernel, 1, 0)
	require.Equal(t, tensor.Shape{1, 2, 4, 4}, conv.Shape())

	pooled, _ := be.MaxPool2D(conv, 2, 2)
	require.Equal(t, tensor.Shape{1, 2, 2, 2}, pooled.Shape())

	flat := be.Reshape(pooled, tensor.Shape{1, 8})
	grads := be.Tape().Backward(onesLike(t, tensor.Shape{1, 8}), be)

	require.Contains(t, grads, input)
	require.Contains(t, grads, kernel)
	assert.Equal(t, input.Shape(), grads[input].Shape())
	assert.Equal(t, kernel.Shape(), grads[kernel].Shape())
	_ = flat
}

func TestTransposeGradient(t *testing.T) {
	be := New(cpu.New())
	be.Tape().StartRecording()

	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := be.Transpose(x, 1, 0)
	require.Equal(t, tensor.Shape{3, 2}, y.Shape())

	grads := be.Tape().Backward(onesLike(t, tensor.Shape{3, 2}), be)
	require.Contains(t, grads, x)
	assert.Equal(t, tensor.Shape{2, 3}, grads[x].Shape())
}
