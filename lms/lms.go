// Package lms wires Large Model Support into a training run.
//
// Large Model Support moves tensors between accelerator and host memory
// so models and batches larger than accelerator memory can train. The
// mechanism itself lives in an external graph-rewriting engine that adds
// swap-in and swap-out nodes to the computational graph; this package
// only carries the engine's tuning options and hands them over when
// training begins. It implements no paging, rewriting, or scheduling.
package lms

import (
	"fmt"
	"log"

	"github.com/choudary21/WML-CE-LMS/train"
)

// Auto lets the engine choose a value for an option.
const Auto = -1

// Options tunes the external swapping engine. All three values are
// forwarded verbatim and never interpreted here; Auto (-1) defers the
// choice to the engine.
type Options struct {
	// SwapoutThreshold controls how aggressively tensors are swapped out
	// to host memory.
	SwapoutThreshold int

	// SwapinAhead controls how early swapped-out tensors are brought
	// back before their next use.
	SwapinAhead int

	// SwapinGroupby controls how many swap-in operations are grouped
	// together.
	SwapinGroupby int
}

// DefaultOptions leaves every choice to the engine.
func DefaultOptions() Options {
	return Options{
		SwapoutThreshold: Auto,
		SwapinAhead:      Auto,
		SwapinGroupby:    Auto,
	}
}

// Validate rejects values below Auto. Anything else passes: the options
// are opaque to this package and only the engine gives them meaning.
func (o Options) Validate() error {
	for _, opt := range []struct {
		name  string
		value int
	}{
		{"swapout_threshold", o.SwapoutThreshold},
		{"swapin_ahead", o.SwapinAhead},
		{"swapin_groupby", o.SwapinGroupby},
	} {
		if opt.value < Auto {
			return fmt.Errorf("lms: %s is %d, must be >= %d", opt.name, opt.value, Auto)
		}
	}
	return nil
}

// GraphRewriter is the externally supplied engine that takes a
// computational graph and adds swap-in and swap-out nodes to it. This
// repository ships no implementation; engines register themselves either
// on the Callback directly or by implementing this interface on the
// training backend.
type GraphRewriter interface {
	InstallSwapNodes(opts Options) error
}

// Callback forwards the options to a GraphRewriter when training begins.
// Without an engine the callback is inert, which is fine for models that
// fit in memory; the options simply have nothing to tune.
type Callback struct {
	train.BaseCallback

	Options Options

	// Rewriter is the explicitly injected engine. When nil, the run's
	// backend is probed for the GraphRewriter interface instead.
	Rewriter GraphRewriter
}

// New creates the callback with the given options.
func New(opts Options) *Callback {
	return &Callback{Options: opts}
}

// OnTrainBegin validates the options and hands them to the engine.
func (c *Callback) OnTrainBegin(run *train.Run) error {
	if err := c.Options.Validate(); err != nil {
		return err
	}

	rewriter := c.Rewriter
	if rewriter == nil {
		rewriter, _ = run.Backend.(GraphRewriter)
	}
	if rewriter == nil {
		log.Printf("lms: no graph rewriter on backend %s, large model support inactive", run.Backend.Name())
		return nil
	}

	log.Printf("lms: enabling large model support (swapout_threshold=%d swapin_ahead=%d swapin_groupby=%d)",
		c.Options.SwapoutThreshold, c.Options.SwapinAhead, c.Options.SwapinGroupby)
	if err := rewriter.InstallSwapNodes(c.Options); err != nil {
		return fmt.Errorf("lms: install swap nodes: %w", err)
	}
	return nil
}
