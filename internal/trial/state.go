// Package trial holds the per-balloon state machine.
//
// A balloon starts Active and ends either Exploded or Collected. Once a
// terminal state is reached the pump count and banked amount are frozen;
// further transitions are ignored.
package trial

import (
	"log"

	"BARTHub/internal/block"
	"BARTHub/internal/calculator"
	"BARTHub/internal/model"
)

// Outcome describes the result of a single pump attempt.
type Outcome int

const (
	// OutcomeIgnored means the trial was already terminal.
	OutcomeIgnored Outcome = iota
	OutcomeInflated
	OutcomeExploded
)

// State is one balloon's mutable state.
type State struct {
	BalloonIndex int
	BlockIndex   int
	PumpCount    int
	Pending      int
	Banked       int
	Color        model.Color
	MaxPumpCount int
	UnitPayout   int

	status model.TrialStatus
}

// New creates an Active balloon with the block parameters snapshotted.
func New(balloonIndex int, params block.Params) *State {
	return &State{
		BalloonIndex: balloonIndex,
		BlockIndex:   params.Index,
		Color:        params.Color,
		MaxPumpCount: params.MaxPumpCount,
		UnitPayout:   params.UnitPayout,
		status:       model.StatusActive,
	}
}

// Status returns the current lifecycle state.
func (s *State) Status() model.TrialStatus { return s.status }

// Exploded reports whether the balloon popped.
func (s *State) Exploded() bool { return s.status == model.StatusExploded }

// Terminal reports whether the balloon is finished.
func (s *State) Terminal() bool { return s.status.Terminal() }

// Pump draws an explosion against the current pump count, then either pops
// the balloon or adds one pump and one unit of pending earnings.
func (s *State) Pump(src calculator.Source) Outcome {
	if s.Terminal() {
		s.ignored("pump")
		return OutcomeIgnored
	}
	if calculator.Explodes(src, s.PumpCount, s.MaxPumpCount) {
		s.status = model.StatusExploded
		s.Pending = 0
		s.Banked = 0
		return OutcomeExploded
	}
	s.PumpCount++
	s.Pending += s.UnitPayout
	return OutcomeInflated
}

// Collect banks pump_count × unit_payout and ends the trial.
func (s *State) Collect() bool {
	if s.Terminal() {
		s.ignored("collect")
		return false
	}
	s.status = model.StatusCollected
	s.Banked = s.PumpCount * s.UnitPayout
	s.Pending = 0
	return true
}

// PumpTo pumps until the balloon explodes or reaches target, collecting in
// the latter case. It returns the final status.
func (s *State) PumpTo(target int, src calculator.Source) model.TrialStatus {
	for !s.Terminal() && s.PumpCount < target {
		s.Pump(src)
	}
	if !s.Terminal() {
		s.Collect()
	}
	return s.status
}

// ExplosionPoint is the 1-based pump attempt that popped the balloon, or 0.
func (s *State) ExplosionPoint() int {
	if !s.Exploded() {
		return 0
	}
	return s.PumpCount + 1
}

func (s *State) ignored(action string) {
	assertf(false, "trial %d: %s after %s", s.BalloonIndex, action, s.status)
	log.Printf("[WARN] trial %d: %s ignored, balloon already %s", s.BalloonIndex, action, s.status)
}
