// Package agent plays sessions with a scripted participant. The simulate
// command uses it to produce reference data sets through the real
// controller and recorders.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"BARTHub/internal/model"
	"BARTHub/internal/scheduler"
	"BARTHub/internal/session"
)

// Policy chooses how many pumps the participant aims for on a balloon.
type Policy interface {
	Target(s model.Snapshot) int
}

// Fixed aims for the same count on every balloon.
type Fixed int

func (f Fixed) Target(model.Snapshot) int { return int(f) }

// Intner draws an integer in [0, n).
type Intner interface {
	IntN(n int) int
}

// Uniform draws each target from [Min, Max].
type Uniform struct {
	Min, Max int
	Rand     Intner
}

func (u Uniform) Target(model.Snapshot) int {
	return u.Min + u.Rand.IntN(u.Max-u.Min+1)
}

// ParsePolicy accepts "N" for a fixed target or "MIN-MAX" for a uniform one.
func ParsePolicy(s string, rng Intner) (Policy, error) {
	first, last, isRange := strings.Cut(strings.TrimSpace(s), "-")
	lo, err := strconv.Atoi(first)
	if err != nil || lo < 0 {
		return nil, fmt.Errorf("invalid pump target %q", s)
	}
	if !isRange {
		return Fixed(lo), nil
	}
	hi, err := strconv.Atoi(last)
	if err != nil || hi < lo {
		return nil, fmt.Errorf("invalid pump target range %q", s)
	}
	return Uniform{Min: lo, Max: hi, Rand: rng}, nil
}

// Player drives a controller balloon by balloon. Pacer must be the
// controller's pacer for the auto variant.
type Player struct {
	Policy Policy
	Pacer  *scheduler.StepPacer
}

// Play runs every remaining balloon and returns the session summary.
func (p *Player) Play(ctx context.Context, ctrl *session.Controller) (session.Summary, error) {
	variant := ctrl.Config().Variant
	if variant == model.VariantAuto && p.Pacer == nil {
		return session.Summary{}, errors.New("auto variant needs a step pacer")
	}

	for !ctrl.Finished() {
		if err := ctx.Err(); err != nil {
			return ctrl.Summary(), err
		}
		target := p.Policy.Target(ctrl.Snapshot())

		var err error
		switch variant {
		case model.VariantPreset:
			err = p.preset(ctrl, target)
		case model.VariantAuto:
			err = p.auto(ctrl, target)
		default:
			err = p.manual(ctrl, target)
		}
		if err != nil {
			return ctrl.Summary(), err
		}
		if err := ctrl.Advance(); err != nil {
			return ctrl.Summary(), err
		}
	}
	return ctrl.Summary(), nil
}

func (p *Player) manual(ctrl *session.Controller, target int) error {
	for {
		snap := ctrl.Snapshot()
		if snap.Status.Terminal() {
			return nil
		}
		if snap.PumpCount >= target {
			return ctrl.Collect()
		}
		if err := ctrl.Pump(); err != nil {
			return err
		}
	}
}

// preset treats a zero target as a participant who never answers.
func (p *Player) preset(ctrl *session.Controller, target int) error {
	if target <= 0 {
		return ctrl.SubmitPresetTimeout()
	}
	return ctrl.SubmitPreset(min(target, model.MaxPresetPumps))
}

func (p *Player) auto(ctrl *session.Controller, target int) error {
	if err := ctrl.StartAuto(); err != nil {
		return err
	}
	for {
		snap := ctrl.Snapshot()
		if !snap.Inflating || snap.PumpCount >= target {
			break
		}
		if !p.Pacer.Fire() {
			break
		}
	}
	return ctrl.StopAuto()
}
