// Package scheduler drives timer-based pumping for the auto-inflate variant.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// every fires at a fixed interval. cron.Every truncates to whole seconds,
// which is too coarse for inflation speeds like 1.5s.
type every struct {
	interval time.Duration
}

func (e every) Next(t time.Time) time.Time { return t.Add(e.interval) }

// CronPacer schedules repeated ticks on a shared cron runner. It holds at
// most one entry: starting again replaces the previous one.
type CronPacer struct {
	mu     sync.Mutex
	cron   *cron.Cron
	logger cron.Logger
	entry  cron.EntryID
	active bool
}

// NewCronPacer creates and starts the underlying cron runner.
func NewCronPacer() *CronPacer {
	logger := cron.PrintfLogger(log.Default())
	p := &CronPacer{
		cron:   cron.New(cron.WithLogger(logger)),
		logger: logger,
	}
	p.cron.Start()
	log.Println("[INFO] pacer started")
	return p
}

// Start schedules tick every interval until Stop. A tick still running when
// the next one is due is skipped rather than queued.
func (p *CronPacer) Start(interval time.Duration, tick func()) error {
	if interval <= 0 {
		return fmt.Errorf("pacer interval must be positive, got %v", interval)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		p.cron.Remove(p.entry)
	}
	job := cron.NewChain(cron.SkipIfStillRunning(p.logger)).Then(cron.FuncJob(tick))
	p.entry = p.cron.Schedule(every{interval: interval}, job)
	p.active = true
	return nil
}

// Stop removes the pending entry. A tick already running is not interrupted.
func (p *CronPacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.cron.Remove(p.entry)
	p.active = false
}

// Active reports whether a tick is scheduled.
func (p *CronPacer) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Close stops the runner and waits for running ticks, bounded by ctx.
func (p *CronPacer) Close(ctx context.Context) error {
	p.Stop()
	done := p.cron.Stop()
	select {
	case <-done.Done():
		log.Println("[INFO] pacer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
