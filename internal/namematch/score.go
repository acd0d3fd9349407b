package namematch

import (
	"math"
	"strconv"
)

// Score is a similarity score in [0, 100] with two-decimal precision.
type Score float64

// String renders the score with exactly two decimals, e.g. "92.30".
func (s Score) String() string {
	return strconv.FormatFloat(float64(s), 'f', 2, 64)
}

// MarshalText encodes the score as its two-decimal string.
func (s Score) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func newScore(fraction float64) Score {
	v := math.Round(fraction*100*100) / 100
	return Score(math.Max(0, math.Min(100, v)))
}

// Penalty steps applied per discarded metric.
const (
	lenientPenaltyStep = 0.02
	strictPenaltyStep  = 0.05
)

// MinPenaltyStep is the smallest per-discard penalty the combiner applies,
// expressed as a fraction of the weighted average.
const MinPenaltyStep = lenientPenaltyStep

var (
	swappedWeights = [4]float64{0.4, 0.3, 0.2, 0.1}
	mixedWeights   = [4]float64{0.45, 0.25, 0.2, 0.1}
	plainWeights   = [4]float64{0.3, 0.3, 0.25, 0.15}
)

func finalWeightsFor(c Classification) [4]float64 {
	switch {
	case c.Swapped:
		return swappedWeights
	case c.Mixed:
		return mixedWeights
	default:
		return plainWeights
	}
}

// Breakdown explains how a final score was produced.
type Breakdown struct {
	WeightedAverage float64 `json:"weighted_average"`
	StdDev          float64 `json:"std_dev"`
	Discarded       int     `json:"discarded"`
	Penalty         float64 `json:"penalty"`
}

// FinalScore combines an aggregated MetricSet into a score for the pair a, b.
// The pair is re-classified to select the weights and the penalty step.
func (e *Engine) FinalScore(ms MetricSet, a, b string) Score {
	s, _ := combine(ms, e.Classify(a, b))
	return s
}

// combine weights the four metrics, discards zero scores and scores further
// than two population standard deviations from the weighted average, and
// applies a penalty per discarded score.
func combine(ms MetricSet, c Classification) (Score, Breakdown) {
	scores := ms.Values()
	weights := finalWeightsFor(c)

	var weightedAvg float64
	for i, s := range scores {
		weightedAvg += s * weights[i]
	}

	var sumSq float64
	for _, s := range scores {
		d := s - weightedAvg
		sumSq += d * d
	}
	stdDev := math.Sqrt(sumSq / float64(len(scores)))

	discarded := 0
	for _, s := range scores {
		if s == 0 || math.Abs(s-weightedAvg) > 2*stdDev {
			discarded++
		}
	}

	step := strictPenaltyStep
	if c.Swapped || c.Mixed {
		step = lenientPenaltyStep
	}
	penalty := float64(discarded) * step

	return newScore(weightedAvg * (1 - penalty)), Breakdown{
		WeightedAverage: weightedAvg,
		StdDev:          stdDev,
		Discarded:       discarded,
		Penalty:         penalty,
	}
}
