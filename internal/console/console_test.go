package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"BARTHub/internal/model"
	"BARTHub/internal/scheduler"
	"BARTHub/internal/session"
)

type neverPops struct{}

func (neverPops) Float64() float64 { return 0.999999 }
func (neverPops) IntN(int) int     { return 0 }

type alwaysPops struct{}

func (alwaysPops) Float64() float64 { return 0 }
func (alwaysPops) IntN(int) int     { return 0 }

type failingRecorder struct{}

func (failingRecorder) RecordTrial(*model.TrialRecord) error { return errors.New("disk full") }
func (failingRecorder) Close() error                        { return nil }

type memRecorder struct{ records []model.TrialRecord }

func (m *memRecorder) RecordTrial(r *model.TrialRecord) error {
	m.records = append(m.records, *r)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func testConfig(v model.Variant, balloons int) model.SessionConfig {
	return model.SessionConfig{
		Variant:           v,
		BlockCount:        1,
		BalloonsPerBlock:  balloons,
		Blocks:            []model.BlockConfig{{MaxPumpCount: 128, Color: model.ColorBlue}},
		UnitPayout:        5,
		InputTimeout:      200 * time.Millisecond,
		InflationInterval: time.Second,
	}
}

func setup(t *testing.T, cfg model.SessionConfig, opts ...session.Option) (*Console, *session.Controller, *memRecorder, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	con := New(&out)
	rec := &memRecorder{}
	opts = append(opts, session.WithSource(neverPops{}), session.WithObserver(con.Observe))
	ctrl, err := session.NewController(cfg, rec, opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return con, ctrl, rec, &out
}

func TestRun_Manual(t *testing.T) {
	con, ctrl, rec, out := setup(t, testConfig(model.VariantManual, 2))

	err := con.Run(context.Background(), ctrl, strings.NewReader("p\nP\nc\nhelp\npump\ncollect\n"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ctrl.Finished() {
		t.Fatal("session should be finished")
	}
	if len(rec.records) != 2 || rec.records[0].AmountEarned != 10 || rec.records[1].AmountEarned != 5 {
		t.Errorf("unexpected records %+v", rec.records)
	}
	for _, want := range []string{"Collected $0.10 after 2 pumps.", "Session complete", "Total earned: $0.15"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_QuitAndClosedInput(t *testing.T) {
	con, ctrl, _, _ := setup(t, testConfig(model.VariantPoints, 2))
	if err := con.Run(context.Background(), ctrl, strings.NewReader("p\nq\n")); !errors.Is(err, ErrAborted) {
		t.Errorf("expected ErrAborted, got %v", err)
	}

	con, ctrl, _, _ = setup(t, testConfig(model.VariantManual, 2))
	if err := con.Run(context.Background(), ctrl, strings.NewReader("p\nc\n")); !errors.Is(err, ErrInputClosed) {
		t.Errorf("expected ErrInputClosed, got %v", err)
	}
}

func TestRun_PresetRetriesAndTimesOut(t *testing.T) {
	con, ctrl, rec, out := setup(t, testConfig(model.VariantPreset, 2))

	// The second balloon never gets an answer, so the pipe stays open.
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	go func() {
		io.WriteString(pw, "abc\n0\n151\n3\n")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := con.Run(ctx, ctrl, pr); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(rec.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rec.records))
	}
	if r := rec.records[0]; r.PumpCount != 3 || r.AmountEarned != 15 || r.ReactionTime == nil {
		t.Errorf("unexpected first record %+v", r)
	}
	if r := rec.records[1]; r.PumpCount != 0 || r.AmountEarned != 0 || r.ReactionTime != nil {
		t.Errorf("timeout should collect an unpumped balloon, got %+v", r)
	}
	text := out.String()
	for _, want := range []string{"whole number", "between 1 and 150", "Time is up."} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRun_AutoStartStop(t *testing.T) {
	pacer := scheduler.NewStepPacer()
	con, ctrl, rec, _ := setup(t, testConfig(model.VariantAuto, 1), session.WithPacer(pacer))

	if err := con.Run(context.Background(), ctrl, strings.NewReader("s\nx\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if pacer.Starts != 1 || pacer.Running() {
		t.Errorf("unexpected pacer state: starts=%d running=%v", pacer.Starts, pacer.Running())
	}
	if len(rec.records) != 1 || rec.records[0].Exploded {
		t.Errorf("unexpected records %+v", rec.records)
	}
}

func TestRun_AutoPrintsEachStateOnce(t *testing.T) {
	pacer := scheduler.NewStepPacer()
	con, ctrl, rec, out := setup(t, testConfig(model.VariantAuto, 2), session.WithPacer(pacer))

	if err := con.Run(context.Background(), ctrl, strings.NewReader("s\nx\ns\nx\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rec.records))
	}
	// One status before starting and one while inflating, per balloon.
	for _, header := range []string{"Balloon 1/2", "Balloon 2/2"} {
		if n := strings.Count(out.String(), header); n != 2 {
			t.Errorf("%q printed %d times, want 2:\n%s", header, n, out.String())
		}
	}
	if n := len(con.events); n > 2 {
		t.Errorf("expected at most the final snapshots queued, got %d", n)
	}
}

func TestRun_AutoRecordFailureEndsRun(t *testing.T) {
	pacer := scheduler.NewStepPacer()
	var out bytes.Buffer
	con := New(&out)
	ctrl, err := session.NewController(testConfig(model.VariantAuto, 2), failingRecorder{},
		session.WithSource(alwaysPops{}), session.WithPacer(pacer),
		session.WithObserver(con.Observe), session.WithErrorHandler(con.Fail))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	// Input stays open so only the failure can end the run.
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	go io.WriteString(pw, "s\n")
	go func() {
		for !pacer.Running() {
			time.Sleep(time.Millisecond)
		}
		pacer.Fire()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = con.Run(ctx, ctrl, pr)
	if !errors.Is(err, session.ErrRecord) {
		t.Fatalf("expected ErrRecord, got %v", err)
	}
	if snap := ctrl.Snapshot(); !snap.Exploded || snap.BalloonIndex != 1 {
		t.Errorf("expected run to stop on the burst balloon, got %+v", snap)
	}
}
