package recorder

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"BARTHub/internal/model"
)

func testMeta() model.SessionMeta {
	return model.SessionMeta{
		ID:        uuid.New(),
		Variant:   model.VariantManual,
		StartedAt: time.Date(2025, 3, 4, 15, 6, 7, 0, time.UTC),
		Subject:   model.Subject{ID: "S01", Age: "24", Sex: "F", Session: "2"},
	}
}

func collected(balloon, pumps int) *model.TrialRecord {
	rt := 1.25
	return &model.TrialRecord{
		BalloonIndex: balloon, BlockIndex: 1, PumpCount: pumps,
		AmountEarned: pumps * 5, ReactionTime: &rt, Color: model.ColorBlue,
		MaxPumpCount: 128, UnitPayout: 5,
		Subject: model.Subject{ID: "S01", Age: "24", Sex: "F", Session: "2"},
	}
}

func exploded(balloon, pumps int) *model.TrialRecord {
	return &model.TrialRecord{
		BalloonIndex: balloon, BlockIndex: 1, PumpCount: pumps, Exploded: true,
		ExplosionPoint: pumps + 1, Color: model.ColorRed,
		MaxPumpCount: 128, UnitPayout: 5,
		Subject: model.Subject{ID: "S01", Age: "24", Sex: "F", Session: "2"},
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(testMeta()); got != "manual_data_20250304_150607.csv" {
		t.Errorf("unexpected file name %q", got)
	}
}

func TestCSVRecorder_HeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	r, err := NewCSVRecorder(dir, testMeta())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r.RecordTrial(collected(1, 10)); err != nil {
		t.Fatalf("record 1: %v", err)
	}
	if err := r.RecordTrial(exploded(2, 3)); err != nil {
		t.Fatalf("record 2: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{
		"balloon_num,block_num,num_pumps,exploded,money_earned,reaction_time,balloon_color,explosion_point,max_pop,cents_per_pump,age,sex,session,subject_id",
		"1,1,10,0,50,1.250,blue,,128,5,24,F,2,S01",
		"2,1,3,1,0,,red,4,128,5,24,F,2,S01",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), data)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d:\nexpected %s\n     got %s", i+1, want[i], lines[i])
		}
	}
}

func TestCSVRecorder_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	meta := testMeta()
	r, err := NewCSVRecorder(dir, meta)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if _, err := NewCSVRecorder(dir, meta); err == nil {
		t.Fatal("expected second open of the same session file to fail")
	}
}

func TestCSVRecorder_ReadBack(t *testing.T) {
	dir := t.TempDir()
	r, err := NewCSVRecorder(dir, testMeta())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r.RecordTrial(collected(1, 4))
	r.RecordTrial(exploded(2, 0))
	r.Close()

	recs, err := ReadFile(r.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].AmountEarned != 20 || recs[0].ReactionTime == nil || *recs[0].ReactionTime != 1.25 {
		t.Errorf("record 1 mismatch: %+v", recs[0])
	}
	if !recs[1].Exploded || recs[1].ExplosionPoint != 1 || recs[1].ReactionTime != nil {
		t.Errorf("record 2 mismatch: %+v", recs[1])
	}
	if v := Verify(recs); len(v) != 0 {
		t.Errorf("expected clean file, got %v", v)
	}
}

func TestTee_WritesAllSinksOnce(t *testing.T) {
	good := &countingRecorder{}
	bad := &countingRecorder{err: errors.New("disk full")}
	tee := NewTee(good, bad)

	err := tee.RecordTrial(collected(1, 1))
	if err == nil {
		t.Fatal("expected sink error to be reported")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("unexpected error: %v", err)
	}
	if good.n != 1 || bad.n != 1 {
		t.Errorf("expected one write per sink, got %d and %d", good.n, bad.n)
	}
}

func TestOpen_CSVOnlyWithoutSQLite(t *testing.T) {
	rec, err := Open(Options{OutputDir: t.TempDir()}, testMeta())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rec.Close()
	if _, ok := rec.(*CSVRecorder); !ok {
		t.Errorf("expected *CSVRecorder, got %T", rec)
	}
}

type countingRecorder struct {
	n   int
	err error
}

func (c *countingRecorder) RecordTrial(_ *model.TrialRecord) error {
	c.n++
	return c.err
}

func (c *countingRecorder) Close() error { return nil }
