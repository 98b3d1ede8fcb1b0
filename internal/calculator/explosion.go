package calculator

// Source yields uniform draws in [0, 1).
type Source interface {
	Float64() float64
}

// CalculateExplosionProbability returns the chance that the next pump pops
// the balloon, given pumpCount successful pumps so far.
//
// The model draws the explosion threshold without replacement from
// maxPumpCount equally likely values: after k survivals there are
// maxPumpCount-k thresholds left, so the hazard is 1/(maxPumpCount-k).
// The resulting pump count at explosion is uniform over [0, maxPumpCount).
func CalculateExplosionProbability(pumpCount, maxPumpCount int) float64 {
	if pumpCount >= maxPumpCount {
		return 1.0
	}
	denominator := maxPumpCount - pumpCount
	if denominator < 1 {
		denominator = 1
	}
	return 1.0 / float64(denominator)
}

// Explodes draws once from src and reports whether the next pump pops.
// pumpCount is the count before the pump is applied.
func Explodes(src Source, pumpCount, maxPumpCount int) bool {
	return src.Float64() < CalculateExplosionProbability(pumpCount, maxPumpCount)
}
