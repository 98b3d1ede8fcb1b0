package prize

import "BARTHub/internal/model"

// Tier is a points-variant prize level.
type Tier struct {
	Label string
	Rank  int // 0 for no prize, 4 for bonus
}

var (
	None   = Tier{Label: "None", Rank: 0}
	Small  = Tier{Label: "Small", Rank: 1}
	Medium = Tier{Label: "Medium", Rank: 2}
	Large  = Tier{Label: "Large", Rank: 3}
	Bonus  = Tier{Label: "Bonus", Rank: 4}
)

// table lists thresholds from the highest tier down.
func table(th model.Thresholds) []struct {
	MinPoints int
	Tier      Tier
} {
	return []struct {
		MinPoints int
		Tier      Tier
	}{
		{th.Bonus, Bonus},
		{th.Large, Large},
		{th.Medium, Medium},
		{th.Small, Small},
	}
}

// Evaluate returns the highest tier whose threshold does not exceed total.
func Evaluate(total int, th model.Thresholds) Tier {
	for _, t := range table(th) {
		if total >= t.MinPoints {
			return t.Tier
		}
	}
	return None
}
