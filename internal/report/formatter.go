// Package report renders session state as plain text for the console and
// the simulate command.
package report

import (
	"fmt"
	"strings"

	"BARTHub/internal/model"
	"BARTHub/internal/recorder"
	"BARTHub/internal/session"
)

// FormatAmount renders an amount in the variant's unit: dollars for the
// money variants, raw points otherwise.
func FormatAmount(v model.Variant, amount int) string {
	if v == model.VariantPoints {
		return fmt.Sprintf("%d points", amount)
	}
	return fmt.Sprintf("$%.2f", float64(amount)/100)
}

// FormatStatus is the one-line header shown while a balloon is active.
func FormatStatus(s model.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Balloon %d/%d | Block %d/%d | %s\n",
		s.BalloonIndex, s.TotalBalloons, s.BlockIndex, s.BlockCount, s.Color))
	b.WriteString(fmt.Sprintf("Pumps: %d | Potential: %s | Total: %s",
		s.PumpCount, FormatAmount(s.Variant, s.Pending), FormatAmount(s.Variant, s.TotalEarned)))
	if s.Variant == model.VariantPreset || s.Variant == model.VariantAuto {
		b.WriteString(fmt.Sprintf(" | Last balloon: %s", FormatAmount(s.Variant, s.LastEarned)))
	}
	if s.Inflating {
		b.WriteString(" | inflating")
	}
	return b.String()
}

// FormatTrialFeedback describes how a finished balloon ended.
func FormatTrialFeedback(s model.Snapshot) string {
	switch s.Status {
	case model.StatusExploded:
		return fmt.Sprintf("POP! The balloon burst after %d pumps. Nothing earned this round.", s.PumpCount)
	case model.StatusCollected:
		return fmt.Sprintf("Collected %s after %d pumps.", FormatAmount(s.Variant, s.Banked), s.PumpCount)
	}
	return ""
}

// FormatSummary formats the end-of-session overview.
func FormatSummary(s session.Summary) string {
	var b strings.Builder
	b.WriteString("Session complete\n\n")
	b.WriteString(fmt.Sprintf("Total earned: %s\n", FormatAmount(s.Variant, s.TotalEarned)))
	b.WriteString(fmt.Sprintf("Balloons: %d (%d burst)\n", s.Completed, s.Explosions))
	b.WriteString(fmt.Sprintf("Average pumps on collected balloons: %.2f\n", s.AdjustedPumps))
	if s.Prize != nil {
		if s.Prize.Rank == 0 {
			b.WriteString("Prize: none\n")
		} else {
			b.WriteString(fmt.Sprintf("Prize: %s\n", s.Prize.Label))
		}
	}
	return b.String()
}

// FormatViolations lists verification findings, or confirms a clean file.
func FormatViolations(path string, rows int, vs []recorder.Violation) string {
	var b strings.Builder
	if len(vs) == 0 {
		b.WriteString(fmt.Sprintf("%s: %d trials, OK\n", path, rows))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%s: %d trials, %d problems\n", path, rows, len(vs)))
	for _, v := range vs {
		b.WriteString(fmt.Sprintf("  %s\n", v))
	}
	return b.String()
}
