// Package session runs a sequence of balloons for one participant.
//
// The Controller is the only owner of session state. Actions arrive from a
// driver (console, simulation, GUI) and, for the auto variant, from pacer
// ticks on another goroutine; a mutex serializes both into one logical flow.
package session

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"BARTHub/internal/block"
	"BARTHub/internal/calculator"
	"BARTHub/internal/model"
	"BARTHub/internal/recorder"
	"BARTHub/internal/trial"
)

var (
	ErrWrongVariant       = errors.New("action not available in this variant")
	ErrInvalidPresetCount = errors.New("preset pump count out of range")
	ErrTrialActive        = errors.New("current balloon is still active")
	ErrSessionFinished    = errors.New("session finished")
	ErrRecord             = errors.New("record trial")
)

// Source supplies explosion draws and random block colors.
type Source interface {
	calculator.Source
	block.Picker
}

// Pacer schedules auto-inflate ticks. Stop must not wait for a running tick.
type Pacer interface {
	Start(interval time.Duration, tick func()) error
	Stop()
}

// Totals accumulates across completed balloons.
type Totals struct {
	TotalEarned  int
	PumpsHistory []int // pump counts of collected balloons, in completion order
	Explosions   int
	Completed    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithSource replaces the seeded random source.
func WithSource(src Source) Option { return func(c *Controller) { c.src = src } }

// WithPacer sets the tick scheduler required by the auto variant.
func WithPacer(p Pacer) Option { return func(c *Controller) { c.pacer = p } }

// WithClock replaces time.Now for reaction times.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// WithObserver receives a snapshot after every state change.
func WithObserver(fn func(model.Snapshot)) Option { return func(c *Controller) { c.observer = fn } }

// WithErrorHandler receives errors from pacer-driven transitions, which
// have no caller to return them to.
func WithErrorHandler(fn func(error)) Option { return func(c *Controller) { c.onError = fn } }

// Controller sequences balloons, applies the variant policy and keeps totals.
type Controller struct {
	mu       sync.Mutex
	cfg      model.SessionConfig
	schedule *block.Schedule
	rec      recorder.Recorder
	src      Source
	pacer    Pacer
	now      func() time.Time
	observer func(model.Snapshot)
	onError  func(error)

	balloon   int
	params    block.Params
	trial     *trial.State
	startedAt time.Time
	reaction  *float64

	// Pending-timer slot for auto-inflation. Every start, stop or explosion
	// bumps generation so a tick scheduled before it is dropped.
	inflating  bool
	generation uint64

	totals     Totals
	lastEarned int
	finished   bool
}

// NewController validates cfg and begins the first balloon.
func NewController(cfg model.SessionConfig, rec recorder.Recorder, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: recorder is required", model.ErrInvalidConfig)
	}
	c := &Controller{
		cfg:      cfg,
		schedule: block.NewSchedule(cfg),
		rec:      rec,
		now:      time.Now,
		onError: func(err error) {
			log.Printf("[ERROR] %v", err)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.src == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		c.src = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if cfg.Variant == model.VariantAuto && c.pacer == nil {
		return nil, fmt.Errorf("%w: auto variant requires a pacer", model.ErrInvalidConfig)
	}

	c.balloon = 1
	c.enterBlock()
	c.begin()
	return c, nil
}

func (c *Controller) enterBlock() {
	c.params = c.schedule.Enter(c.schedule.BlockIndexFor(c.balloon), c.src)
	log.Printf("[INFO] block %d/%d: max_pop=%d color=%s payout=%d",
		c.params.Index, c.cfg.BlockCount, c.params.MaxPumpCount, c.params.Color, c.params.UnitPayout)
}

func (c *Controller) begin() {
	c.trial = trial.New(c.balloon, c.params)
	c.startedAt = c.now()
	c.reaction = nil
}

// markAction stamps the reaction time on the participant's first action.
func (c *Controller) markAction() {
	if c.reaction != nil {
		return
	}
	rt := c.now().Sub(c.startedAt).Seconds()
	c.reaction = &rt
}

// apply runs fn under the lock and notifies the observer if state changed.
func (c *Controller) apply(fn func() (changed bool, err error)) error {
	c.mu.Lock()
	changed, err := fn()
	var snap model.Snapshot
	if changed {
		snap = c.snapshotLocked()
	}
	c.mu.Unlock()
	if changed && c.observer != nil {
		c.observer(snap)
	}
	return err
}

func (c *Controller) require(variants ...model.Variant) error {
	if c.finished {
		return ErrSessionFinished
	}
	for _, v := range variants {
		if c.cfg.Variant == v {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrWrongVariant, c.cfg.Variant)
}

// Pump applies one participant pump (manual and points variants).
func (c *Controller) Pump() error {
	return c.apply(func() (bool, error) {
		if err := c.require(model.VariantManual, model.VariantPoints); err != nil {
			return false, err
		}
		if c.trial.Terminal() {
			return false, nil
		}
		c.markAction()
		if c.trial.Pump(c.src) == trial.OutcomeExploded {
			return true, c.complete()
		}
		return true, nil
	})
}

// Collect banks the current balloon (manual and points variants).
func (c *Controller) Collect() error {
	return c.apply(func() (bool, error) {
		if err := c.require(model.VariantManual, model.VariantPoints); err != nil {
			return false, err
		}
		if c.trial.Terminal() {
			return false, nil
		}
		c.markAction()
		c.trial.Collect()
		return true, c.complete()
	})
}

// SubmitPreset pumps exactly n times unless the balloon pops first, then
// collects. n must be in [1, MaxPresetPumps]; otherwise nothing changes.
func (c *Controller) SubmitPreset(n int) error {
	return c.apply(func() (bool, error) {
		if err := c.require(model.VariantPreset); err != nil {
			return false, err
		}
		if n < 1 || n > model.MaxPresetPumps {
			return false, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidPresetCount, n, model.MaxPresetPumps)
		}
		if c.trial.Terminal() {
			return false, nil
		}
		c.markAction()
		c.trial.PumpTo(n, c.src)
		return true, c.complete()
	})
}

// SubmitPresetTimeout records that no count arrived before the deadline:
// the balloon is collected unpumped and no reaction time is recorded.
func (c *Controller) SubmitPresetTimeout() error {
	return c.apply(func() (bool, error) {
		if err := c.require(model.VariantPreset); err != nil {
			return false, err
		}
		if c.trial.Terminal() {
			return false, nil
		}
		c.trial.PumpTo(0, c.src)
		return true, c.complete()
	})
}

// StartAuto begins timed inflation. Starting while inflating or after the
// balloon finished does nothing.
func (c *Controller) StartAuto() error {
	return c.apply(func() (bool, error) {
		if err := c.require(model.VariantAuto); err != nil {
			return false, err
		}
		if c.inflating || c.trial.Terminal() {
			return false, nil
		}
		c.markAction()
		c.generation++
		gen := c.generation
		if err := c.pacer.Start(c.cfg.InflationInterval, func() { c.autoTick(gen) }); err != nil {
			return false, fmt.Errorf("start inflation: %w", err)
		}
		c.inflating = true
		return true, nil
	})
}

// StopAuto cancels the pending tick and collects. It is a no-op unless
// inflation is running, so repeated calls are harmless.
func (c *Controller) StopAuto() error {
	return c.apply(func() (bool, error) {
		if err := c.require(model.VariantAuto); err != nil {
			if errors.Is(err, ErrSessionFinished) {
				return false, nil
			}
			return false, err
		}
		if !c.inflating {
			return false, nil
		}
		c.cancelInflation()
		c.trial.Collect()
		return true, c.complete()
	})
}

func (c *Controller) cancelInflation() {
	c.pacer.Stop()
	c.inflating = false
	c.generation++
}

// autoTick reports a record failure before notifying the observer, so a
// driver woken by the snapshot already sees the error.
func (c *Controller) autoTick(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || !c.inflating || c.trial.Terminal() {
		c.mu.Unlock()
		return
	}
	var recErr error
	if c.trial.Pump(c.src) == trial.OutcomeExploded {
		c.cancelInflation()
		recErr = c.complete()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if recErr != nil && c.onError != nil {
		c.onError(recErr)
	}
	if c.observer != nil {
		c.observer(snap)
	}
}

// complete updates totals and writes the record for a terminal balloon.
func (c *Controller) complete() error {
	t := c.trial
	rec := &model.TrialRecord{
		BalloonIndex:   t.BalloonIndex,
		BlockIndex:     t.BlockIndex,
		PumpCount:      t.PumpCount,
		Exploded:       t.Exploded(),
		AmountEarned:   t.Banked,
		ReactionTime:   c.reaction,
		Color:          t.Color,
		ExplosionPoint: t.ExplosionPoint(),
		MaxPumpCount:   t.MaxPumpCount,
		UnitPayout:     t.UnitPayout,
		Subject:        c.cfg.Subject,
	}

	c.totals.Completed++
	if t.Exploded() {
		c.totals.Explosions++
		c.lastEarned = 0
	} else {
		c.totals.TotalEarned += t.Banked
		c.totals.PumpsHistory = append(c.totals.PumpsHistory, t.PumpCount)
		c.lastEarned = t.Banked
	}

	if err := c.rec.RecordTrial(rec); err != nil {
		return fmt.Errorf("%w: balloon %d: %w", ErrRecord, t.BalloonIndex, err)
	}
	return nil
}

// Advance moves to the next balloon once the current one is finished. After
// the last balloon it marks the session finished.
func (c *Controller) Advance() error {
	return c.apply(func() (bool, error) {
		if c.finished {
			return false, ErrSessionFinished
		}
		if !c.trial.Terminal() {
			return false, ErrTrialActive
		}
		if c.balloon >= c.schedule.TotalBalloons() {
			c.finished = true
			log.Printf("[INFO] session finished: %d balloons, earned %d %s",
				c.totals.Completed, c.totals.TotalEarned, c.cfg.Variant.Unit())
			return true, nil
		}
		c.balloon++
		if c.schedule.StartsBlock(c.balloon) {
			c.enterBlock()
		}
		c.begin()
		return true, nil
	})
}

// Finished reports whether every balloon has been completed and advanced past.
func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// Config returns the session configuration.
func (c *Controller) Config() model.SessionConfig { return c.cfg }

// Snapshot returns the current read-only view.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() model.Snapshot {
	t := c.trial
	return model.Snapshot{
		Variant:       c.cfg.Variant,
		BalloonIndex:  c.balloon,
		TotalBalloons: c.schedule.TotalBalloons(),
		BlockIndex:    t.BlockIndex,
		BlockCount:    c.cfg.BlockCount,
		PumpCount:     t.PumpCount,
		Status:        t.Status(),
		Exploded:      t.Exploded(),
		Pending:       t.Pending,
		Banked:        t.Banked,
		TotalEarned:   c.totals.TotalEarned,
		LastEarned:    c.lastEarned,
		Color:         t.Color,
		MaxPumpCount:  t.MaxPumpCount,
		UnitPayout:    t.UnitPayout,
		Inflating:     c.inflating,
		Finished:      c.finished,
	}
}

// Totals returns a copy of the running totals.
func (c *Controller) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.totals
	t.PumpsHistory = append([]int(nil), c.totals.PumpsHistory...)
	return t
}
