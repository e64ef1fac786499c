package scoring

const (
	requiredWeight   = 0.6
	preferredWeight  = 0.2
	impactWeight     = 0.2
	impactSaturation = 10.0
	warningPenalty   = 0.05
	maxPenalty       = 0.3
)

// FitScore combines keyword coverage, edit volume and validation warnings into a ranking score in [0,1].
func FitScore(c Coverage, editCount, warnings int) float64 {
	impact := min(float64(editCount)/impactSaturation, 1)
	penalty := min(float64(warnings)*warningPenalty, maxPenalty)
	raw := c.RequiredRatio()*requiredWeight + c.PreferredRatio()*preferredWeight + impact*impactWeight
	return max(0, min(1, raw-penalty))
}
