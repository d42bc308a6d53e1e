package risk

// ScoreConfig holds the tunable parts of the safety-score heuristic.
// The defaults reproduce the original placeholder formula exactly; the
// thresholds stand in for a real regional risk surface and are kept as
// data so they can be replaced without touching the evaluation pipeline.
type ScoreConfig struct {
	Base         int
	Penalty      int
	LatThreshold float64
	LngThreshold float64
	Min          int
	Max          int
	Neutral      int // returned for the absent-location sentinel
}

// DefaultScoreConfig returns the reference heuristic: base 70, -5 above
// 26°N, -5 east of 90°E, clamped to [10, 99], sentinel scores 50.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Base:         70,
		Penalty:      5,
		LatThreshold: 26.0,
		LngThreshold: 90.0,
		Min:          10,
		Max:          99,
		Neutral:      50,
	}
}

// Score computes the safety score for a coordinate. Higher is safer.
// The (0,0) sentinel means "no reading yet" and always scores Neutral.
func (c ScoreConfig) Score(lat, lng float64) int {
	if lat == 0 && lng == 0 {
		return c.Neutral
	}
	score := c.Base
	if lat > c.LatThreshold {
		score -= c.Penalty
	}
	if lng > c.LngThreshold {
		score -= c.Penalty
	}
	if score < c.Min {
		score = c.Min
	}
	if score > c.Max {
		score = c.Max
	}
	return score
}

// Score applies the default heuristic.
func Score(lat, lng float64) int {
	return DefaultScoreConfig().Score(lat, lng)
}
