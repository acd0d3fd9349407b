package httpserver

import (
	"github.com/helixir/name-similarity-service/internal/scoring"
)

// Similarity response types for JSON serialization.

type metricsResponse struct {
	Phonetic    float64 `json:"phonetic"`
	JaroWinkler float64 `json:"jaro_winkler"`
	Levenshtein float64 `json:"levenshtein"`
	Bigram      float64 `json:"bigram"`
}

type classificationResponse struct {
	Swapped bool   `json:"swapped"`
	Mixed   bool   `json:"mixed"`
	Kind    string `json:"kind"`
}

type breakdownResponse struct {
	WeightedAverage float64 `json:"weighted_average"`
	StdDev          float64 `json:"std_dev"`
	Discarded       int     `json:"discarded"`
	Penalty         float64 `json:"penalty"`
}

type pairResponse struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

type similarityResponse struct {
	RequestID      string                 `json:"request_id"`
	Score          string                 `json:"score"`
	Mode           string                 `json:"mode"`
	Metrics        metricsResponse        `json:"metrics"`
	Classification classificationResponse `json:"classification"`
	Breakdown      *breakdownResponse     `json:"breakdown,omitempty"`
	Sentinel       bool                   `json:"sentinel"`
	Compared       pairResponse           `json:"compared"`
	Languages      *pairResponse          `json:"languages,omitempty"`
	Translator     string                 `json:"translator,omitempty"`
	Fallback       string                 `json:"fallback,omitempty"`
	DurationMS     float64                `json:"duration_ms"`
}

type classifyResponse struct {
	Classification      classificationResponse `json:"classification"`
	Tokens1             []string               `json:"tokens1"`
	Tokens2             []string               `json:"tokens2"`
	Normalized          pairResponse           `json:"normalized"`
	CompletelyDifferent bool                   `json:"completely_different"`
}

// Converter functions

func resultToResponse(r scoring.Result) similarityResponse {
	resp := similarityResponse{
		RequestID: r.RequestID,
		Score:     r.Score.String(),
		Mode:      r.Mode.String(),
		Metrics: metricsResponse{
			Phonetic:    r.Metrics.Phonetic,
			JaroWinkler: r.Metrics.JaroWinkler,
			Levenshtein: r.Metrics.Levenshtein,
			Bigram:      r.Metrics.Bigram,
		},
		Classification: classificationResponse{
			Swapped: r.Classification.Swapped,
			Mixed:   r.Classification.Mixed,
			Kind:    r.Classification.Kind(),
		},
		Sentinel:   r.Sentinel,
		Compared:   pairResponse{Text1: r.Compared.Text1, Text2: r.Compared.Text2},
		Translator: r.Translator,
		Fallback:   r.Fallback,
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
	}
	if !r.Sentinel && r.Fallback == "" {
		resp.Breakdown = &breakdownResponse{
			WeightedAverage: r.Breakdown.WeightedAverage,
			StdDev:          r.Breakdown.StdDev,
			Discarded:       r.Breakdown.Discarded,
			Penalty:         r.Breakdown.Penalty,
		}
	}
	if r.Languages != (scoring.Pair{}) {
		resp.Languages = &pairResponse{Text1: r.Languages.Text1, Text2: r.Languages.Text2}
	}
	return resp
}

func inspectionToResponse(in scoring.Inspection) classifyResponse {
	return classifyResponse{
		Classification: classificationResponse{
			Swapped: in.Swapped,
			Mixed:   in.Mixed,
			Kind:    in.Kind,
		},
		Tokens1:             nonNil(in.Tokens1),
		Tokens2:             nonNil(in.Tokens2),
		Normalized:          pairResponse{Text1: in.Normalized.Text1, Text2: in.Normalized.Text2},
		CompletelyDifferent: in.CompletelyDifferent,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
