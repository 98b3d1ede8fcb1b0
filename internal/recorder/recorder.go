package recorder

import (
	"errors"
	"fmt"
	"log"

	"BARTHub/internal/model"
)

// Columns is the fixed column order of a session file.
var Columns = []string{
	"balloon_num", "block_num", "num_pumps", "exploded", "money_earned",
	"reaction_time", "balloon_color", "explosion_point", "max_pop", "cents_per_pump",
	"age", "sex", "session", "subject_id",
}

// Recorder persists completed trials. RecordTrial must return only after the
// record is durable, and is never retried by callers.
type Recorder interface {
	RecordTrial(rec *model.TrialRecord) error
	Close() error
}

// Options selects which sinks Open creates.
type Options struct {
	OutputDir  string
	SQLitePath string
}

// Open creates the CSV sink for a session and, when configured, a SQLite sink
// alongside it. A SQLite failure degrades to CSV only; a CSV failure is fatal
// because it is the primary record.
func Open(opts Options, meta model.SessionMeta) (Recorder, error) {
	csvRec, err := NewCSVRecorder(opts.OutputDir, meta)
	if err != nil {
		return nil, err
	}
	if opts.SQLitePath == "" {
		return csvRec, nil
	}
	sr, err := NewSQLiteRecorder(opts.SQLitePath, meta)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, csv only: %v", err)
		return csvRec, nil
	}
	return NewTee(csvRec, sr), nil
}

// Tee fans each record out to several sinks.
type Tee struct {
	sinks []Recorder
}

// NewTee combines sinks; records go to them in order.
func NewTee(sinks ...Recorder) *Tee {
	return &Tee{sinks: sinks}
}

// RecordTrial writes to every sink exactly once and joins their errors.
func (t *Tee) RecordTrial(rec *model.TrialRecord) error {
	var errs []error
	for i, s := range t.sinks {
		if err := s.RecordTrial(rec); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) Close() error {
	var errs []error
	for _, s := range t.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
