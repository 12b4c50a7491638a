// Package train runs mini-batch gradient descent over a model with a
// Keras-style callback list.
package train

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/choudary21/WML-CE-LMS/internal/autodiff"
	"github.com/choudary21/WML-CE-LMS/internal/nn"
	"github.com/choudary21/WML-CE-LMS/internal/optim"
	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// FitConfig configures a training run.
type FitConfig struct {
	Epochs    int
	BatchSize int

	// Shuffle reorders the training examples every epoch, seeded by Seed.
	Shuffle bool
	Seed    int64

	// LogEvery logs batch progress every N batches; 0 disables it.
	LogEvery int

	Callbacks []Callback
}

// Trainer owns the autodiff backend and optimizer driving a run.
type Trainer[B tensor.Backend] struct {
	backend   *autodiff.Backend[B]
	optimizer optim.Optimizer
}

// New creates a trainer.
func New[B tensor.Backend](backend *autodiff.Backend[B], optimizer optim.Optimizer) *Trainer[B] {
	return &Trainer[B]{backend: backend, optimizer: optimizer}
}

// Backend returns the autodiff backend models should be built on.
func (t *Trainer[B]) Backend() *autodiff.Backend[B] {
	return t.backend
}

// Fit trains model on (x, y) for the configured number of epochs. valX
// and valY are optional; when present each epoch ends with a validation
// pass. Returns the recorded history.
func (t *Trainer[B]) Fit(
	model nn.Module[*autodiff.Backend[B]],
	x, y *tensor.Tensor[float32, *autodiff.Backend[B]],
	valX, valY *tensor.Tensor[float32, *autodiff.Backend[B]],
	cfg FitConfig,
) (*History, error) {
	n := x.Shape()[0]
	if y.Shape()[0] != n {
		return nil, fmt.Errorf("fit: %d examples but %d labels", n, y.Shape()[0])
	}
	if cfg.Epochs < 1 {
		return nil, fmt.Errorf("fit: epochs %d, must be >= 1", cfg.Epochs)
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > n {
		return nil, fmt.Errorf("fit: batch size %d outside [1, %d]", cfg.BatchSize, n)
	}
	if (valX == nil) != (valY == nil) {
		return nil, fmt.Errorf("fit: validation inputs and labels must be given together")
	}

	history := NewHistory()
	callbacks := append([]Callback{history}, cfg.Callbacks...)

	// Ceiling division: the final short batch still trains.
	batches := (n + cfg.BatchSize - 1) / cfg.BatchSize
	run := &Run{
		Backend:   t.backend,
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		Batches:   batches,
	}
	for _, cb := range callbacks {
		if err := cb.OnTrainBegin(run); err != nil {
			return history, fmt.Errorf("fit: train begin callback: %w", err)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		for _, cb := range callbacks {
			if err := cb.OnEpochBegin(epoch); err != nil {
				return history, fmt.Errorf("fit: epoch begin callback: %w", err)
			}
		}
		if cfg.Shuffle {
			rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		stats, err := t.trainEpoch(model, x, y, order, epoch, batches, cfg, callbacks)
		if err != nil {
			return history, err
		}

		if valX != nil {
			stats.ValLoss, stats.ValAccuracy = t.evaluate(model, valX, valY, cfg.BatchSize)
			stats.HasValidation = true
			log.Printf("epoch %d/%d loss=%.4f acc=%.4f val_loss=%.4f val_acc=%.4f",
				epoch, cfg.Epochs, stats.Loss, stats.Accuracy, stats.ValLoss, stats.ValAccuracy)
		} else {
			log.Printf("epoch %d/%d loss=%.4f acc=%.4f",
				epoch, cfg.Epochs, stats.Loss, stats.Accuracy)
		}

		for _, cb := range callbacks {
			if err := cb.OnEpochEnd(stats); err != nil {
				return history, fmt.Errorf("fit: epoch end callback: %w", err)
			}
		}
	}

	for _, cb := range callbacks {
		if err := cb.OnTrainEnd(); err != nil {
			return history, fmt.Errorf("fit: train end callback: %w", err)
		}
	}
	return history, nil
}

func (t *Trainer[B]) trainEpoch(
	model nn.Module[*autodiff.Backend[B]],
	x, y *tensor.Tensor[float32, *autodiff.Backend[B]],
	order []int,
	epoch, batches int,
	cfg FitConfig,
	callbacks []Callback,
) (EpochStats, error) {
	nn.SetTraining[*autodiff.Backend[B]](model, true)
	tape := t.backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	n := len(order)
	var lossSum, accSum float64
	for batch := 0; batch < batches; batch++ {
		start := batch * cfg.BatchSize
		end := start + cfg.BatchSize
		if end > n {
			end = n
		}
		indices := order[start:end]
		xb := gather(x, indices)
		yb := gather(y, indices)

		logits := model.Forward(xb)
		loss := nn.CategoricalCrossEntropy(logits, yb)
		lossVal := float64(loss.Item())

		outGrad := tensor.Ones[float32](tensor.Shape{1}, t.backend)
		grads := tape.Backward(outGrad.Raw(), t.backend)
		t.optimizer.Step(grads)
		tape.Clear()

		// Per-batch means weighted by batch size so a short final batch
		// does not skew the epoch mean.
		weight := float64(len(indices))
		lossSum += lossVal * weight
		accSum += nn.Accuracy(logits, yb) * weight

		if cfg.LogEvery > 0 && (batch+1)%cfg.LogEvery == 0 {
			log.Printf("epoch %d batch %d/%d loss=%.4f", epoch, batch+1, batches, lossVal)
		}
		for _, cb := range callbacks {
			if err := cb.OnBatchEnd(epoch, batch, lossVal); err != nil {
				return EpochStats{}, fmt.Errorf("fit: batch end callback: %w", err)
			}
		}
	}

	return EpochStats{
		Epoch:    epoch,
		Loss:     lossSum / float64(n),
		Accuracy: accSum / float64(n),
	}, nil
}

// evaluate runs a validation pass with the tape off and the model in
// evaluation mode.
func (t *Trainer[B]) evaluate(
	model nn.Module[*autodiff.Backend[B]],
	x, y *tensor.Tensor[float32, *autodiff.Backend[B]],
	batchSize int,
) (loss, accuracy float64) {
	nn.SetTraining[*autodiff.Backend[B]](model, false)
	tape := t.backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	n := x.Shape()[0]
	if batchSize > n {
		batchSize = n
	}
	batches := (n + batchSize - 1) / batchSize

	var lossSum, accSum float64
	for batch := 0; batch < batches; batch++ {
		start := batch * batchSize
		end := start + batchSize
		if end > n {
			end = n
		}
		indices := make([]int, end-start)
		for i := range indices {
			indices[i] = start + i
		}
		xb := gather(x, indices)
		yb := gather(y, indices)

		logits := model.Forward(xb)
		weight := float64(len(indices))
		lossSum += float64(nn.CategoricalCrossEntropy(logits, yb).Item()) * weight
		accSum += nn.Accuracy(logits, yb) * weight
	}
	return lossSum / float64(n), accSum / float64(n)
}

// Evaluate reports mean loss and accuracy of model over (x, y).
func (t *Trainer[B]) Evaluate(
	model nn.Module[*autodiff.Backend[B]],
	x, y *tensor.Tensor[float32, *autodiff.Backend[B]],
	batchSize int,
) (loss, accuracy float64) {
	return t.evaluate(model, x, y, batchSize)
}

// gather copies the selected rows of t into a fresh batch tensor.
func gather[B tensor.Backend](t *tensor.Tensor[float32, B], indices []int) *tensor.Tensor[float32, B] {
	shape := t.Shape().Clone()
	rowSize := t.NumElements() / shape[0]
	shape[0] = len(indices)

	out := tensor.Zeros[float32](shape, t.Backend())
	src, dst := t.Data(), out.Data()
	for i, idx := range indices {
		copy(dst[i*rowSize:(i+1)*rowSize], src[idx*rowSize:(idx+1)*rowSize])
	}
	return out
}
