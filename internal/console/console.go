// Package console drives a session from line-oriented text input.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"BARTHub/internal/model"
	"BARTHub/internal/report"
	"BARTHub/internal/session"
)

var (
	ErrAborted     = errors.New("session aborted by participant")
	ErrInputClosed = errors.New("input closed before the session finished")

	errTimeout = errors.New("input deadline passed")
)

// Console maps typed commands onto controller actions and prints feedback.
type Console struct {
	out      io.Writer
	events   chan model.Snapshot
	failures chan error
}

// New creates a console writing to out.
func New(out io.Writer) *Console {
	return &Console{
		out:      out,
		events:   make(chan model.Snapshot, 64),
		failures: make(chan error, 1),
	}
}

// Observe must be registered with session.WithObserver so the console sees
// transitions made by the pacer, such as an auto-inflated balloon bursting.
func (c *Console) Observe(s model.Snapshot) {
	select {
	case c.events <- s:
	default:
	}
}

// Fail must be registered with session.WithErrorHandler. Errors raised by
// pacer-driven transitions then end Run the same way a failed typed action
// does.
func (c *Console) Fail(err error) {
	select {
	case c.failures <- err:
	default:
	}
}

// Run plays the whole session, reading commands from in. It returns nil once
// every balloon is done, ErrAborted on quit, or the first controller error.
func (c *Console) Run(ctx context.Context, ctrl *session.Controller, in io.Reader) error {
	lines := readLines(ctx, in)
	cfg := ctrl.Config()
	c.println(help(cfg))

	for !ctrl.Finished() {
		select {
		case err := <-c.failures:
			return err
		default:
		}
		// The snapshot below supersedes anything already queued.
		c.drain()
		snap := ctrl.Snapshot()
		if snap.Status.Terminal() {
			c.println(report.FormatTrialFeedback(snap))
			if err := ctrl.Advance(); err != nil {
				return err
			}
			continue
		}
		c.println(report.FormatStatus(snap))

		var err error
		switch cfg.Variant {
		case model.VariantPreset:
			err = c.presetStep(ctx, ctrl, lines, cfg.InputTimeout)
		case model.VariantAuto:
			err = c.autoStep(ctx, ctrl, lines, snap)
		default:
			err = c.manualStep(ctx, ctrl, lines)
		}
		if err != nil {
			return err
		}
	}

	c.println(report.FormatSummary(ctrl.Summary()))
	return nil
}

func (c *Console) manualStep(ctx context.Context, ctrl *session.Controller, lines <-chan string) error {
	line, err := next(ctx, lines, nil)
	if err != nil {
		return err
	}
	switch strings.ToLower(line) {
	case "p", "pump":
		return ctrl.Pump()
	case "c", "collect":
		return ctrl.Collect()
	case "q", "quit":
		return ErrAborted
	default:
		c.println(help(ctrl.Config()))
		return nil
	}
}

// presetStep keeps one deadline per balloon; rejected answers do not reset it.
func (c *Console) presetStep(ctx context.Context, ctrl *session.Controller, lines <-chan string, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.printf("How many pumps? (1-%d, %s to answer)\n", model.MaxPresetPumps, timeout)
		line, err := next(ctx, lines, deadline.C)
		if errors.Is(err, errTimeout) {
			c.println("Time is up.")
			return ctrl.SubmitPresetTimeout()
		}
		if err != nil {
			return err
		}
		if l := strings.ToLower(line); l == "q" || l == "quit" {
			return ErrAborted
		}

		n, convErr := strconv.Atoi(line)
		if convErr != nil {
			c.println("Please enter a whole number.")
			continue
		}
		err = ctrl.SubmitPreset(n)
		if errors.Is(err, session.ErrInvalidPresetCount) {
			c.printf("Please enter a number between 1 and %d.\n", model.MaxPresetPumps)
			continue
		}
		return err
	}
}

func (c *Console) autoStep(ctx context.Context, ctrl *session.Controller, lines <-chan string, snap model.Snapshot) error {
	if !snap.Inflating {
		line, err := next(ctx, lines, nil)
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "s", "start":
			return ctrl.StartAuto()
		case "q", "quit":
			return ErrAborted
		default:
			c.println(help(ctrl.Config()))
			return nil
		}
	}

	// Inflating: whichever comes first, a stop command or a pacer transition.
	for {
		select {
		case <-ctx.Done():
			ctrl.StopAuto()
			return ctx.Err()
		case err := <-c.failures:
			return err
		case e := <-c.events:
			if e.Inflating && e.BalloonIndex == snap.BalloonIndex && e.PumpCount == snap.PumpCount {
				continue
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				ctrl.StopAuto()
				return ErrInputClosed
			}
			switch strings.ToLower(line) {
			case "", "x", "stop":
				return ctrl.StopAuto()
			case "q", "quit":
				ctrl.StopAuto()
				return ErrAborted
			}
			return nil
		}
	}
}

func (c *Console) drain() {
	for {
		select {
		case <-c.events:
		default:
			return
		}
	}
}

func next(ctx context.Context, lines <-chan string, deadline <-chan time.Time) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-deadline:
		return "", errTimeout
	case line, ok := <-lines:
		if !ok {
			return "", ErrInputClosed
		}
		return line, nil
	}
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func help(cfg model.SessionConfig) string {
	switch cfg.Variant {
	case model.VariantPreset:
		return "Type how many times to pump the balloon, then press Enter. q quits."
	case model.VariantAuto:
		return "s starts inflating, x (or Enter) stops and collects. q quits."
	default:
		return fmt.Sprintf("p pumps (+%s), c collects. q quits.",
			report.FormatAmount(cfg.Variant, cfg.UnitPayout))
	}
}

func (c *Console) println(s string) { fmt.Fprintln(c.out, s) }

func (c *Console) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }
