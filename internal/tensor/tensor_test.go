package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend implements just enough of Backend for facade tests.
type stubBackend struct{}

func (stubBackend) Name() string   { return "stub" }
func (stubBackend) Device() Device { return CPU }

func (stubBackend) Add(a, b *RawTensor) *RawTensor { panic("not implemented") }
func (stubBackend) Sub(a, b *RawTensor) *RawTensor { panic("not implemented") }
func (stubBackend) Mul(a, b *RawTensor) *RawTensor { panic("not implemented") }
func (stubBackend) Div(a, b *RawTensor) *RawTensor { panic("not implemented") }

func (stubBackend) AddScalar(a *RawTensor, s float64) *RawTensor { panic("not implemented") }
func (stubBackend) MulScalar(a *RawTensor, s float64) *RawTensor { panic("not implemented") }

func (stubBackend) Exp(a *RawTensor) *RawTensor  { panic("not implemented") }
func (stubBackend) Log(a *RawTensor) *RawTensor  { panic("not implemented") }
func (stubBackend) Sqrt(a *RawTensor) *RawTensor { panic("not implemented") }

func (stubBackend) MatMul(a, b *RawTensor) *RawTensor { panic("not implemented") }

func (stubBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	panic("not implemented")
}

func (stubBackend) Conv2DInputBackward(g, k *RawTensor, s Shape, st, p int) *RawTensor {
	panic("not implemented")
}

func (stubBackend) Conv2DKernelBackward(in, g *RawTensor, s Shape, st, p int) *RawTensor {
	panic("not implemented")
}

func (stubBackend) MaxPool2D(in *RawTensor, k, s int) (*RawTensor, *RawTensor) {
	panic("not implemented")
}

func (stubBackend) MaxPool2DBackward(g, idx *RawTensor, s Shape, k, st int) *RawTensor {
	panic("not implemented")
}

func (stubBackend) Reshape(a *RawTensor, shape Shape) *RawTensor {
	r, err := a.WithShape(shape)
	if err != nil {
		panic(err)
	}
	return r
}

func (stubBackend) Transpose(a *RawTensor, axes ...int) *RawTensor { panic("not implemented") }
func (stubBackend) Softmax(a *RawTensor, dim int) *RawTensor       { panic("not implemented") }

func (stubBackend) Sum(a *RawTensor) *RawTensor { panic("not implemented") }

func (stubBackend) SumDim(a *RawTensor, dim int, keep bool) *RawTensor {
	panic("not implemented")
}

func (stubBackend) MeanDim(a *RawTensor, dim int, keep bool) *RawTensor {
	panic("not implemented")
}

func (stubBackend) Argmax(a *RawTensor, dim int) *RawTensor { panic("not implemented") }

func TestShapeBasics(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.Strides())
	assert.True(t, s.Equal(Shape{2, 3, 4}))
	assert.False(t, s.Equal(Shape{2, 3}))
	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
}

func TestBroadcast(t *testing.T) {
	out, expand, err := Broadcast(Shape{4, 1}, Shape{3})
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 3}, out)
	assert.True(t, expand)

	out, expand, err = Broadcast(Shape{2, 3}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, out)
	assert.False(t, expand)

	_, _, err = Broadcast(Shape{2, 3}, Shape{4})
	assert.Error(t, err)
}

func TestRawTensorRefCounting(t *testing.T) {
	r, err := NewRaw(Shape{2, 2}, Float32, CPU)
	require.NoError(t, err)
	assert.True(t, r.IsUnique())

	clone := r.Clone()
	assert.False(t, r.IsUnique())
	assert.False(t, clone.IsUnique())

	// Clones share memory until a kernel copies on write.
	r.AsFloat32()[0] = 7
	assert.Equal(t, float32(7), clone.AsFloat32()[0])

	clone.Release()
	assert.True(t, r.IsUnique())
}

func TestForceNonUnique(t *testing.T) {
	r := MustRaw(Shape{3}, Float32, CPU)
	release := r.ForceNonUnique()
	assert.False(t, r.IsUnique())
	release()
	assert.True(t, r.IsUnique())
}

func TestTypedViews(t *testing.T) {
	r := MustRaw(Shape{4}, Int32, CPU)
	r.AsInt32()[2] = 42
	assert.Equal(t, int32(42), r.AsInt32()[2])

	assert.Panics(t, func() { r.AsFloat32() })
}

func TestFromSliceAndAccess(t *testing.T) {
	b := stubBackend{}
	x, err := FromSlice[float32](
		[]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	require.NoError(t, err)

	assert.Equal(t, float32(6), x.At(1, 2))
	x.Set(9, 0, 1)
	assert.Equal(t, float32(9), x.At(0, 1))

	_, err = FromSlice[float32]([]float32{1, 2}, Shape{3}, b)
	assert.Error(t, err)
}

func TestCreationHelpers(t *testing.T) {
	b := stubBackend{}

	ones := Ones[float32](Shape{2, 2}, b)
	for _, v := range ones.Data() {
		assert.Equal(t, float32(1), v)
	}

	full := Full[float64](Shape{3}, 2.5, b)
	assert.Equal(t, 2.5, full.At(1))

	rng := rand.New(rand.NewSource(1))
	rn := Randn[float32](Shape{100}, rng, b)
	var sum float64
	for _, v := range rn.Data() {
		sum += float64(v)
	}
	// Loose sanity bound for a standard normal sample mean.
	assert.InDelta(t, 0, sum/100, 0.5)
}

func TestReshapeView(t *testing.T) {
	b := stubBackend{}
	x := MustFromSlice[float32]([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	y := x.Reshape(Shape{3, 2})
	assert.Equal(t, Shape{3, 2}, y.Shape())

	// Views alias the buffer.
	y.Set(99, 0, 0)
	assert.Equal(t, float32(99), x.At(0, 0))
}
