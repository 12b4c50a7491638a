package train

// History records per-epoch statistics. Fit registers one automatically
// and returns it.
type History struct {
	BaseCallback
	Epochs []EpochStats
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// OnEpochEnd appends the epoch's stats.
func (h *History) OnEpochEnd(stats EpochStats) error {
	h.Epochs = append(h.Epochs, stats)
	return nil
}

// Last returns the final epoch's stats and whether any epoch ran.
func (h *History) Last() (EpochStats, bool) {
	if len(h.Epochs) == 0 {
		return EpochStats{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}
