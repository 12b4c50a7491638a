package train

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// CurvePlotter renders loss and accuracy curves to a PNG when training
// ends. Register it in the callback list with an output path.
type CurvePlotter struct {
	BaseCallback

	// LossPath and AccuracyPath name the output PNGs. An empty path
	// skips that plot.
	LossPath     string
	AccuracyPath string

	epochs []EpochStats
}

// NewCurvePlotter creates a plotter writing loss curves to lossPath and
// accuracy curves to accuracyPath.
func NewCurvePlotter(lossPath, accuracyPath string) *CurvePlotter {
	return &CurvePlotter{LossPath: lossPath, AccuracyPath: accuracyPath}
}

// OnEpochEnd buffers the epoch's stats.
func (c *CurvePlotter) OnEpochEnd(stats EpochStats) error {
	c.epochs = append(c.epochs, stats)
	return nil
}

// OnTrainEnd renders the buffered curves.
func (c *CurvePlotter) OnTrainEnd() error {
	if len(c.epochs) == 0 {
		return nil
	}

	if c.LossPath != "" {
		err := c.renderCurves(c.LossPath, "Training loss", "loss",
			func(s EpochStats) float64 { return s.Loss },
			func(s EpochStats) float64 { return s.ValLoss })
		if err != nil {
			return fmt.Errorf("render loss curves: %w", err)
		}
	}
	if c.AccuracyPath != "" {
		err := c.renderCurves(c.AccuracyPath, "Training accuracy", "accuracy",
			func(s EpochStats) float64 { return s.Accuracy },
			func(s EpochStats) float64 { return s.ValAccuracy })
		if err != nil {
			return fmt.Errorf("render accuracy curves: %w", err)
		}
	}
	return nil
}

func (c *CurvePlotter) renderCurves(
	path, title, yLabel string,
	trainValue, valValue func(EpochStats) float64,
) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = yLabel

	trainPts := make(plotter.XYs, len(c.epochs))
	for i, s := range c.epochs {
		trainPts[i].X = float64(s.Epoch)
		trainPts[i].Y = trainValue(s)
	}
	trainLine, err := plotter.NewLine(trainPts)
	if err != nil {
		return err
	}
	p.Add(trainLine)
	p.Legend.Add("train", trainLine)

	if c.epochs[0].HasValidation {
		valPts := make(plotter.XYs, len(c.epochs))
		for i, s := range c.epochs {
			valPts[i].X = float64(s.Epoch)
			valPts[i].Y = valValue(s)
		}
		valLine, err := plotter.NewLine(valPts)
		if err != nil {
			return err
		}
		valLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(valLine)
		p.Legend.Add("validation", valLine)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
