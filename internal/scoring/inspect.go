package scoring

import "github.com/helixir/name-similarity-service/internal/namematch"

// Inspection describes how the engine sees a pair without scoring it.
type Inspection struct {
	namematch.Classification

	Kind                string
	Tokens1             []string
	Tokens2             []string
	Normalized          Pair
	CompletelyDifferent bool
}

// Inspect classifies and tokenizes a pair of raw names. No collaborator is
// called.
func (s *Service) Inspect(text1, text2 string) Inspection {
	c := s.engine.Classify(text1, text2)
	return Inspection{
		Classification: c,
		Kind:           c.Kind(),
		Tokens1:        namematch.Tokenize(text1),
		Tokens2:        namematch.Tokenize(text2),
		Normalized: Pair{
			Text1: s.engine.Normalize(text1).String(),
			Text2: s.engine.Normalize(text2).String(),
		},
		CompletelyDifferent: s.engine.CompletelyDifferent(text1, text2),
	}
}
