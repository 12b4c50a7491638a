package train

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choudary21/WML-CE-LMS/dataset/mnist"
	"github.com/choudary21/WML-CE-LMS/internal/autodiff"
	"github.com/choudary21/WML-CE-LMS/internal/backend/cpu"
	"github.com/choudary21/WML-CE-LMS/internal/nn"
	"github.com/choudary21/WML-CE-LMS/internal/optim"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

type cpuAD = autodiff.Backend[*cpu.Backend]

func newFixture(t *testing.T, samples int) (*Trainer[*cpu.Backend], nn.Module[*cpuAD], *tensor.Tensor[float32, *cpuAD], *tensor.Tensor[float32, *cpuAD]) {
	t.Helper()
	be := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := nn.NewSequential[*cpuAD](
		nn.NewFlatten[*cpuAD](),
		nn.NewDense[*cpuAD](28*28, mnist.NumClasses, rng, be),
	)

	set := mnist.Synthetic(samples, rng)
	x, y := mnist.Tensors(set, be)

	var params []*tensor.RawTensor
	for _, p := range model.Parameters() {
		params = append(params, p.Raw())
	}
	trainer := New(be, optim.NewSGD(params, 0.1, 0.9))
	return trainer, model, x, y
}

func TestFitReducesLoss(t *testing.T) {
	trainer, model, x, y := newFixture(t, 64)

	history, err := trainer.Fit(model, x, y, nil, nil, FitConfig{
		Epochs:    4,
		BatchSize: 16,
		Shuffle:   true,
		Seed:      42,
	})
	require.NoError(t, err)
	require.Len(t, history.Epochs, 4)

	first, last := history.Epochs[0], history.Epochs[3]
	assert.Less(t, last.Loss, first.Loss)
	assert.False(t, last.HasValidation)

	got, ok := history.Last()
	assert.True(t, ok)
	assert.Equal(t, last, got)
}

func TestFitWithValidation(t *testing.T) {
	trainer, model, x, y := newFixture(t, 48)
	be := trainer.Backend()

	valSet := mnist.Synthetic(16, rand.New(rand.NewSource(9)))
	valX, valY := mnist.Tensors(valSet, be)

	history, err := trainer.Fit(model, x, y, valX, valY, FitConfig{
		Epochs:    2,
		BatchSize: 16,
	})
	require.NoError(t, err)

	for _, s := range history.Epochs {
		assert.True(t, s.HasValidation)
		assert.Greater(t, s.ValLoss, 0.0)
	}
}

func TestFitConfigValidation(t *testing.T) {
	trainer, model, x, y := newFixture(t, 32)

	_, err := trainer.Fit(model, x, y, nil, nil, FitConfig{Epochs: 0, BatchSize: 16})
	assert.Error(t, err)

	_, err = trainer.Fit(model, x, y, nil, nil, FitConfig{Epochs: 1, BatchSize: 0})
	assert.Error(t, err)

	_, err = trainer.Fit(model, x, y, nil, nil, FitConfig{Epochs: 1, BatchSize: 1000})
	assert.Error(t, err)

	// Validation inputs without labels.
	_, err = trainer.Fit(model, x, y, x, nil, FitConfig{Epochs: 1, BatchSize: 16})
	assert.Error(t, err)
}

// orderCallback records the hook sequence.
type orderCallback struct {
	BaseCallback
	events []string
	run    *Run
}

func (o *orderCallback) OnTrainBegin(run *Run) error {
	o.run = run
	o.events = append(o.events, "train_begin")
	return nil
}

func (o *orderCallback) OnEpochBegin(int) error {
	o.events = append(o.events, "epoch_begin")
	return nil
}

func (o *orderCallback) OnBatchEnd(int, int, float64) error {
	o.events = append(o.events, "batch_end")
	return nil
}

func (o *orderCallback) OnEpochEnd(EpochStats) error {
	o.events = append(o.events, "epoch_end")
	return nil
}

func (o *orderCallback) OnTrainEnd() error {
	o.events = append(o.events, "train_end")
	return nil
}

func TestCallbackSequenceAndRun(t *testing.T) {
	trainer, model, x, y := newFixture(t, 32)

	cb := &orderCallback{}
	_, err := trainer.Fit(model, x, y, nil, nil, FitConfig{
		Epochs:    1,
		BatchSize: 16,
		Callbacks: []Callback{cb},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"train_begin", "epoch_begin", "batch_end", "batch_end", "epoch_end", "train_end",
	}, cb.events)

	require.NotNil(t, cb.run)
	assert.Equal(t, 1, cb.run.Epochs)
	assert.Equal(t, 16, cb.run.BatchSize)
	assert.Equal(t, 2, cb.run.Batches)
	assert.NotNil(t, cb.run.Backend)
}

type failingCallback struct {
	BaseCallback
}

func (failingCallback) OnTrainBegin(*Run) error {
	return errors.New("refused")
}

func TestCallbackErrorAbortsRun(t *testing.T) {
	trainer, model, x, y := newFixture(t, 32)

	history, err := trainer.Fit(model, x, y, nil, nil, FitConfig{
		Epochs:    1,
		BatchSize: 16,
		Callbacks: []Callback{failingCallback{}},
	})
	assert.Error(t, err)
	assert.Empty(t, history.Epochs)
}

func TestFitTrainsFinalPartialBatch(t *testing.T) {
	trainer, model, x, y := newFixture(t, 10)

	cb := &orderCallback{}
	_, err := trainer.Fit(model, x, y, nil, nil, FitConfig{
		Epochs:    1,
		BatchSize: 4,
		Callbacks: []Callback{cb},
	})
	require.NoError(t, err)

	// 10 examples at batch size 4: two full batches plus a tail of 2.
	batchEnds := 0
	for _, e := range cb.events {
		if e == "batch_end" {
			batchEnds++
		}
	}
	assert.Equal(t, 3, batchEnds)
	require.NotNil(t, cb.run)
	assert.Equal(t, 3, cb.run.Batches)
}

func TestEvaluateIncludesFinalPartialBatch(t *testing.T) {
	trainer, model, x, y := newFixture(t, 10)

	before, _ := trainer.Evaluate(model, x, y, 4)

	// Move the last two labels to a different class. Those rows only
	// half-fill the final batch, but the metrics must still notice.
	data := y.Data()
	for row := 8; row < 10; row++ {
		r := data[row*mnist.NumClasses : (row+1)*mnist.NumClasses]
		hot := 0
		for c, v := range r {
			if v == 1 {
				hot = c
			}
			r[c] = 0
		}
		r[(hot+1)%mnist.NumClasses] = 1
	}

	after, _ := trainer.Evaluate(model, x, y, 4)
	assert.NotEqual(t, before, after)
}

func TestEvaluate(t *testing.T) {
	trainer, model, x, y := newFixture(t, 32)

	loss, acc := trainer.Evaluate(model, x, y, 16)
	assert.Greater(t, loss, 0.0)
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)
}

func TestGather(t *testing.T) {
	be := autodiff.New(cpu.New())
	x := tensor.MustFromSlice([]float32{
		0, 0,
		1, 1,
		2, 2,
	}, tensor.Shape{3, 2}, be)

	out := gather(x, []int{2, 0})
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 0, 0}, out.Data())
}

func TestCurvePlotterWritesPNGs(t *testing.T) {
	dir := t.TempDir()
	lossPath := filepath.Join(dir, "loss.png")
	accPath := filepath.Join(dir, "accuracy.png")

	cp := NewCurvePlotter(lossPath, accPath)
	for i := 1; i <= 3; i++ {
		require.NoError(t, cp.OnEpochEnd(EpochStats{
			Epoch: i, Loss: 1.0 / float64(i), Accuracy: float64(i) * 0.2,
			ValLoss: 1.2 / float64(i), ValAccuracy: float64(i) * 0.18, HasValidation: true,
		}))
	}
	require.NoError(t, cp.OnTrainEnd())

	for _, path := range []string{lossPath, accPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestCurvePlotterNoEpochs(t *testing.T) {
	cp := NewCurvePlotter("should-not-exist.png", "")
	assert.NoError(t, cp.OnTrainEnd())
	_, err := os.Stat("should-not-exist.png")
	assert.True(t, os.IsNotExist(err))
}
