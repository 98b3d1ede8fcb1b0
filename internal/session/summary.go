package session

import (
	"BARTHub/internal/model"
	"BARTHub/internal/prize"
)

// Summary is the end-of-session overview shown to the participant.
type Summary struct {
	Variant       model.Variant
	TotalEarned   int
	Completed     int
	Explosions    int
	AdjustedPumps float64 // mean pumps over collected balloons
	Prize         *prize.Tier
}

// Summary computes the overview from the current totals. The prize tier is
// only set for the points variant.
func (c *Controller) Summary() Summary {
	t := c.Totals()
	s := Summary{
		Variant:     c.cfg.Variant,
		TotalEarned: t.TotalEarned,
		Completed:   t.Completed,
		Explosions:  t.Explosions,
	}
	if n := len(t.PumpsHistory); n > 0 {
		sum := 0
		for _, p := range t.PumpsHistory {
			sum += p
		}
		s.AdjustedPumps = float64(sum) / float64(n)
	}
	if c.cfg.Variant == model.VariantPoints {
		tier := prize.Evaluate(t.TotalEarned, c.cfg.Prizes)
		s.Prize = &tier
	}
	return s
}
