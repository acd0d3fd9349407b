package namematch

import "math"

// blendWeights weight the max, mean and full-string values of one metric.
type blendWeights struct {
	max, avg, full float64
}

var (
	swappedBlend = blendWeights{max: 0.6, avg: 0.25, full: 0.15}
	mixedBlend   = blendWeights{max: 0.5, avg: 0.3, full: 0.2}
	plainBlend   = blendWeights{max: 0.4, avg: 0.3, full: 0.3}
)

func blendFor(c Classification) blendWeights {
	switch {
	case c.Swapped:
		return swappedBlend
	case c.Mixed:
		return mixedBlend
	default:
		return plainBlend
	}
}

// Aggregate tokenizes both names, scores every cross pair of tokens and the
// two full strings, and blends max, mean and full-string values per metric
// using weights chosen by the pair's classification.
func (e *Engine) Aggregate(a, b string) MetricSet {
	return e.aggregate(a, b, e.Classify(a, b))
}

func (e *Engine) aggregate(a, b string, c Classification) MetricSet {
	if b < a {
		a, b = b, a
	}

	tokensA := Tokenize(a)
	tokensB := Tokenize(b)

	comparableB := make([]string, len(tokensB))
	for j, tb := range tokensB {
		comparableB[j] = e.comparable(tb)
	}

	var maxSet, sumSet MetricSet
	pairs := 0
	for _, ta := range tokensA {
		ca := e.comparable(ta)
		for _, cb := range comparableB {
			m := ComputeMetrics(ca, cb)
			maxSet = MetricSet{
				Phonetic:    math.Max(maxSet.Phonetic, m.Phonetic),
				JaroWinkler: math.Max(maxSet.JaroWinkler, m.JaroWinkler),
				Levenshtein: math.Max(maxSet.Levenshtein, m.Levenshtein),
				Bigram:      math.Max(maxSet.Bigram, m.Bigram),
			}
			sumSet.Phonetic += m.Phonetic
			sumSet.JaroWinkler += m.JaroWinkler
			sumSet.Levenshtein += m.Levenshtein
			sumSet.Bigram += m.Bigram
			pairs++
		}
	}

	var avgSet MetricSet
	if pairs > 0 {
		n := float64(pairs)
		avgSet = MetricSet{
			Phonetic:    sumSet.Phonetic / n,
			JaroWinkler: sumSet.JaroWinkler / n,
			Levenshtein: sumSet.Levenshtein / n,
			Bigram:      sumSet.Bigram / n,
		}
	}

	full := e.Metrics(a, b)
	w := blendFor(c)
	blend := func(mx, avg, fl float64) float64 {
		return round2(mx*w.max + avg*w.avg + fl*w.full)
	}

	return MetricSet{
		Phonetic:    blend(maxSet.Phonetic, avgSet.Phonetic, full.Phonetic),
		JaroWinkler: blend(maxSet.JaroWinkler, avgSet.JaroWinkler, full.JaroWinkler),
		Levenshtein: blend(maxSet.Levenshtein, avgSet.Levenshtein, full.Levenshtein),
		Bigram:      blend(maxSet.Bigram, avgSet.Bigram, full.Bigram),
	}.clamped()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
