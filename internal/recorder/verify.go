package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"BARTHub/internal/model"
)

// Violation is one broken invariant in a session file.
type Violation struct {
	Line    int // 1-based line in the file; 0 for file-level problems
	Message string
}

func (v Violation) String() string {
	if v.Line == 0 {
		return v.Message
	}
	return fmt.Sprintf("line %d: %s", v.Line, v.Message)
}

// ReadFile parses a session CSV written by CSVRecorder.
func ReadFile(path string) ([]model.TrialRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses session rows after checking the header order.
func Read(r io.Reader) ([]model.TrialRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("header column %d: expected %q, got %q", i+1, col, header[i])
		}
	}

	var records []model.TrialRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (model.TrialRecord, error) {
	ints := make([]int, 0, 6)
	for _, i := range []int{0, 1, 2, 4, 8, 9} {
		n, err := strconv.Atoi(row[i])
		if err != nil {
			return model.TrialRecord{}, fmt.Errorf("%s: %w", Columns[i], err)
		}
		ints = append(ints, n)
	}
	rec := model.TrialRecord{
		BalloonIndex: ints[0],
		BlockIndex:   ints[1],
		PumpCount:    ints[2],
		AmountEarned: ints[3],
		MaxPumpCount: ints[4],
		UnitPayout:   ints[5],
		Color:        model.Color(row[6]),
		Subject: model.Subject{
			Age:     row[10],
			Sex:     row[11],
			Session: row[12],
			ID:      row[13],
		},
	}
	switch row[3] {
	case "0":
	case "1":
		rec.Exploded = true
	default:
		return rec, fmt.Errorf("exploded: expected 0 or 1, got %q", row[3])
	}
	if row[5] != "" {
		v, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return rec, fmt.Errorf("reaction_time: %w", err)
		}
		rec.ReactionTime = &v
	}
	if row[7] != "" {
		v, err := strconv.Atoi(row[7])
		if err != nil {
			return rec, fmt.Errorf("explosion_point: %w", err)
		}
		rec.ExplosionPoint = v
	}
	return rec, nil
}

// Verify checks the recorded trials against the accounting rules. Line
// numbers assume the header is line 1.
func Verify(records []model.TrialRecord) []Violation {
	var out []Violation
	add := func(i int, format string, args ...any) {
		out = append(out, Violation{Line: i + 2, Message: fmt.Sprintf(format, args...)})
	}
	prevBlock := 0
	for i, r := range records {
		if r.BalloonIndex != i+1 {
			add(i, "balloon_num %d, expected %d", r.BalloonIndex, i+1)
		}
		if r.BlockIndex < prevBlock {
			add(i, "block_num decreased from %d to %d", prevBlock, r.BlockIndex)
		}
		prevBlock = r.BlockIndex
		if r.PumpCount < 0 || r.PumpCount > r.MaxPumpCount {
			add(i, "num_pumps %d outside [0, %d]", r.PumpCount, r.MaxPumpCount)
		}
		if r.Exploded {
			if r.AmountEarned != 0 {
				add(i, "exploded balloon earned %d", r.AmountEarned)
			}
			if r.ExplosionPoint != r.PumpCount+1 {
				add(i, "explosion_point %d, expected %d", r.ExplosionPoint, r.PumpCount+1)
			}
		} else {
			if want := r.PumpCount * r.UnitPayout; r.AmountEarned != want {
				add(i, "money_earned %d, expected %d", r.AmountEarned, want)
			}
			if r.ExplosionPoint != 0 {
				add(i, "collected balloon has explosion_point %d", r.ExplosionPoint)
			}
		}
	}
	if len(records) == 0 {
		out = append(out, Violation{Message: "no trial rows"})
	}
	return out
}
