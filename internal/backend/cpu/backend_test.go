package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func TestAddSameShape(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	c := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := b.Add(a, c)
	assert.Equal(t, []float32{11, 22, 33, 44}, out.AsFloat32())
}

func TestAddInplaceWhenUnique(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	c := fromSlice(t, []float32{3, 4}, tensor.Shape{2})

	out := b.Add(a, c)
	assert.Same(t, a, out)

	// A pinned buffer must not be mutated.
	d := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	release := d.ForceNonUnique()
	defer release()
	out2 := b.Add(d, c)
	assert.NotSame(t, d, out2)
	assert.Equal(t, []float32{1, 2}, d.AsFloat32())
}

func TestAddBroadcast(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	row := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{3})

	out := b.Add(a, row)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.AsFloat32())

	col := fromSlice(t, []float32{100, 200}, tensor.Shape{2, 1})
	out2 := b.Add(a, col)
	assert.Equal(t, []float32{101, 102, 103, 204, 205, 206}, out2.AsFloat32())
}

func TestMulDivSub(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{2, 4, 6}, tensor.Shape{3})
	c := fromSlice(t, []float32{2, 2, 2}, tensor.Shape{3})

	assert.Equal(t, []float32{4, 8, 12}, b.Mul(a.Clone(), c).AsFloat32())
	assert.Equal(t, []float32{1, 2, 3}, b.Div(a.Clone(), c).AsFloat32())
	assert.Equal(t, []float32{0, 2, 4}, b.Sub(a.Clone(), c).AsFloat32())
}

func TestScalarAndMathOps(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 4, 9}, tensor.Shape{3})

	assert.Equal(t, []float32{2, 5, 10}, b.AddScalar(a.Clone(), 1).AsFloat32())
	assert.Equal(t, []float32{2, 8, 18}, b.MulScalar(a.Clone(), 2).AsFloat32())
	assert.InDeltaSlice(t, []float32{1, 2, 3}, b.Sqrt(a.Clone()).AsFloat32(), 1e-6)

	x := fromSlice(t, []float32{0, 1}, tensor.Shape{2})
	exp := b.Exp(x.Clone()).AsFloat32()
	assert.InDelta(t, 1, exp[0], 1e-6)
	assert.InDelta(t, math.E, exp[1], 1e-5)
}

func TestReLU(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{-1, 0, 2, -3}, tensor.Shape{4})
	assert.Equal(t, []float32{0, 0, 2, 0}, b.ReLU(a).AsFloat32())
}

func TestMatMul(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	c := fromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := b.MatMul(a, c)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.AsFloat32())
}

func TestMatMulTuningTracksBlockSize(t *testing.T) {
	assert.Contains(t, []int{32, 64, 128}, matmulBlock)
	assert.Equal(t, matmulBlock*matmulBlock*64, parallelThreshold)
}

func TestMatMulShapeMismatchPanics(t *testing.T) {
	b := New()
	a := fromSlice(t, make([]float32, 6), tensor.Shape{2, 3})
	c := fromSlice(t, make([]float32, 8), tensor.Shape{4, 2})
	assert.Panics(t, func() { b.MatMul(a, c) })
}

func TestTranspose(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := b.Transpose(a)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.AsFloat32())
}

func TestConv2DIdentityKernel(t *testing.T) {
	b := New()
	// 1x1 kernel of value 1 reproduces the input.
	input := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := fromSlice(t, []float32{1}, tensor.Shape{1, 1, 1, 1})

	out := b.Conv2D(input, kernel, 1, 0)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, out.AsFloat32())
}

func TestConv2DSumKernel(t *testing.T) {
	b := New()
	input := fromSlice(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := fromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	out := b.Conv2D(input, kernel, 1, 0)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{12, 16, 24, 28}, out.AsFloat32())
}

func TestConv2DPadding(t *testing.T) {
	b := New()
	input := fromSlice(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	kernel := fromSlice(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3})

	out := b.Conv2D(input, kernel, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 1, 1}, out.Shape())
	assert.Equal(t, []float32{1}, out.AsFloat32())
}

func TestConv2DBackwardShapes(t *testing.T) {
	b := New()
	input := fromSlice(t, make([]float32, 2*1*4*4), tensor.Shape{2, 1, 4, 4})
	kernel := fromSlice(t, make([]float32, 3*1*3*3), tensor.Shape{3, 1, 3, 3})

	out := b.Conv2D(input, kernel, 1, 0)
	require.Equal(t, tensor.Shape{2, 3, 2, 2}, out.Shape())

	inGrad := b.Conv2DInputBackward(out, kernel, input.Shape(), 1, 0)
	assert.Equal(t, input.Shape(), inGrad.Shape())

	kGrad := b.Conv2DKernelBackward(input, out, kernel.Shape(), 1, 0)
	assert.Equal(t, kernel.Shape(), kGrad.Shape())
}

func TestConv2DInputBackwardValues(t *testing.T) {
	b := New()
	// Single 2x2 kernel over a 2x2 input yields one output; its gradient
	// scatters through the kernel weights.
	kernel := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	grad := fromSlice(t, []float32{2}, tensor.Shape{1, 1, 1, 1})

	inGrad := b.Conv2DInputBackward(grad, kernel, tensor.Shape{1, 1, 2, 2}, 1, 0)
	assert.Equal(t, []float32{2, 4, 6, 8}, inGrad.AsFloat32())
}

func TestMaxPool2D(t *testing.T) {
	b := New()
	input := fromSlice(t, []float32{
		1, 3, 2, 4,
		5, 7, 6, 8,
		9, 11, 10, 12,
		13, 15, 14, 16,
	}, tensor.Shape{1, 1, 4, 4})

	out, indices := b.MaxPool2D(input, 2, 2)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{7, 8, 15, 16}, out.AsFloat32())

	grad := fromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})
	inGrad := b.MaxPool2DBackward(grad, indices, input.Shape(), 2, 2)

	want := make([]float32, 16)
	want[5], want[7], want[13], want[15] = 1, 1, 1, 1
	assert.Equal(t, want, inGrad.AsFloat32())
}

func TestSoftmax(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 2, 3, 1, 2, 3}, tensor.Shape{2, 3})

	out := b.Softmax(a, -1)
	data := out.AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += data[row*3+c]
		}
		assert.InDelta(t, 1, sum, 1e-5)
	}
	// Monotone in the logits.
	assert.Less(t, data[0], data[1])
	assert.Less(t, data[1], data[2])
}

func TestCrossEntropy(t *testing.T) {
	b := New()
	// Uniform logits over 4 classes: loss is log(4) regardless of target.
	logits := fromSlice(t, make([]float32, 8), tensor.Shape{2, 4})
	targets := fromSlice(t, []float32{1, 0, 0, 0, 0, 0, 1, 0}, tensor.Shape{2, 4})

	loss := b.CrossEntropy(logits, targets)
	assert.InDelta(t, math.Log(4), float64(loss.AsFloat32()[0]), 1e-5)
}

func TestReductions(t *testing.T) {
	b := New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	assert.Equal(t, float32(21), b.Sum(a).AsFloat32()[0])

	sum0 := b.SumDim(a, 0, false)
	assert.Equal(t, tensor.Shape{3}, sum0.Shape())
	assert.Equal(t, []float32{5, 7, 9}, sum0.AsFloat32())

	mean1 := b.MeanDim(a, 1, true)
	assert.Equal(t, tensor.Shape{2, 1}, mean1.Shape())
	assert.Equal(t, []float32{2, 5}, mean1.AsFloat32())

	am := b.Argmax(a, 1)
	assert.Equal(t, tensor.Shape{2}, am.Shape())
	assert.Equal(t, []int32{2, 2}, am.AsInt32())
}
