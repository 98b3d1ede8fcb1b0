package recorder

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"BARTHub/internal/model"
)

// CSVRecorder appends one row per trial to a per-session CSV file.
type CSVRecorder struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

// FileName returns "<variant>_data_<YYYYmmdd_HHMMSS>.csv" for a session.
func FileName(meta model.SessionMeta) string {
	return fmt.Sprintf("%s_data_%s.csv", meta.Variant, meta.StartedAt.Format("20060102_150405"))
}

// NewCSVRecorder creates the session file and writes the header row. An
// existing file is never truncated.
func NewCSVRecorder(dir string, meta model.SessionMeta) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(meta))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create session file: %w", err)
	}
	r := &CSVRecorder{path: path, f: f, w: csv.NewWriter(f)}
	if err := r.writeRow(Columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	log.Printf("[INFO] csv recorder opened: %s", path)
	return r, nil
}

// Path is the session file location.
func (r *CSVRecorder) Path() string { return r.path }

func (r *CSVRecorder) RecordTrial(rec *model.TrialRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeRow(FormatRow(rec)); err != nil {
		return fmt.Errorf("append trial %d: %w", rec.BalloonIndex, err)
	}
	return nil
}

func (r *CSVRecorder) writeRow(row []string) error {
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return err
	}
	return r.f.Sync()
}

func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.Printf("[INFO] closing csv recorder: %s", r.path)
	return r.f.Close()
}

// FormatRow renders a record in Columns order.
func FormatRow(rec *model.TrialRecord) []string {
	exploded := "0"
	if rec.Exploded {
		exploded = "1"
	}
	reaction := ""
	if rec.ReactionTime != nil {
		reaction = strconv.FormatFloat(*rec.ReactionTime, 'f', 3, 64)
	}
	explosionPoint := ""
	if rec.Exploded {
		explosionPoint = strconv.Itoa(rec.ExplosionPoint)
	}
	return []string{
		strconv.Itoa(rec.BalloonIndex),
		strconv.Itoa(rec.BlockIndex),
		strconv.Itoa(rec.PumpCount),
		exploded,
		strconv.Itoa(rec.AmountEarned),
		reaction,
		string(rec.Color),
		explosionPoint,
		strconv.Itoa(rec.MaxPumpCount),
		strconv.Itoa(rec.UnitPayout),
		rec.Subject.Age,
		rec.Subject.Sex,
		rec.Subject.Session,
		rec.Subject.ID,
	}
}
