package train

import "github.com/choudary21/WML-CE-LMS/internal/tensor"

// Run describes a training run to callbacks at train begin.
type Run struct {
	// Backend is the backend executing the run, exposed so callbacks can
	// probe it for optional capabilities.
	Backend tensor.Backend

	Epochs    int
	BatchSize int
	// Batches is the number of batches per epoch.
	Batches int
}

// EpochStats is the per-epoch summary handed to callbacks.
type EpochStats struct {
	Epoch    int // 1-based
	Loss     float64
	Accuracy float64

	ValLoss       float64
	ValAccuracy   float64
	HasValidation bool
}

// Callback observes a training run. Returning an error aborts the run.
type Callback interface {
	OnTrainBegin(run *Run) error
	OnEpochBegin(epoch int) error
	OnBatchEnd(epoch, batch int, loss float64) error
	OnEpochEnd(stats EpochStats) error
	OnTrainEnd() error
}

// BaseCallback is a no-op Callback to embed when only some hooks matter.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(*Run) error            { return nil }
func (BaseCallback) OnEpochBegin(int) error             { return nil }
func (BaseCallback) OnBatchEnd(int, int, float64) error { return nil }
func (BaseCallback) OnEpochEnd(EpochStats) error        { return nil }
func (BaseCallback) OnTrainEnd() error                  { return nil }
