package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestEvery_Next(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e := every{interval: 1500 * time.Millisecond}
	if got := e.Next(base); !got.Equal(base.Add(1500 * time.Millisecond)) {
		t.Errorf("expected sub-second precision, got %v", got)
	}
}

func TestCronPacer_TicksUntilStopped(t *testing.T) {
	p := NewCronPacer()
	defer p.Close(context.Background())

	var n atomic.Int32
	if err := p.Start(20*time.Millisecond, func() { n.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", n.Load())
	}

	p.Stop()
	if p.Active() {
		t.Error("pacer still active after stop")
	}
	time.Sleep(30 * time.Millisecond)
	after := n.Load()
	time.Sleep(100 * time.Millisecond)
	if n.Load() != after {
		t.Errorf("ticks continued after stop: %d -> %d", after, n.Load())
	}
}

func TestCronPacer_StopIsIdempotent(t *testing.T) {
	p := NewCronPacer()
	defer p.Close(context.Background())
	p.Stop()
	p.Stop()
	if err := p.Start(time.Hour, func() {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.Stop()
	p.Stop()
	if p.Active() {
		t.Error("expected inactive pacer")
	}
}

func TestCronPacer_RejectsNonPositiveInterval(t *testing.T) {
	p := NewCronPacer()
	defer p.Close(context.Background())
	if err := p.Start(0, func() {}); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestStepPacer(t *testing.T) {
	p := NewStepPacer()
	calls := 0
	if p.Fire() {
		t.Fatal("fire before start should do nothing")
	}
	p.Start(time.Second, func() { calls++ })
	p.Fire()
	p.Fire()
	p.Stop()
	p.Stop()
	if p.Fire() {
		t.Error("fire after stop should do nothing")
	}
	p.FireStale()
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if p.Starts != 1 || p.Stops != 1 {
		t.Errorf("expected 1 start and 1 stop, got %d and %d", p.Starts, p.Stops)
	}
}
