// Package namematch scores how likely two free-text person or organization
// names refer to the same entity.
//
// # Pipeline
//
// A comparison runs these steps:
//
//  1. Inputs equal ignoring case short-circuit to the sentinel score.
//  2. Classify detects swapped token order and mixed Latin/native script.
//  3. Tokenize splits both names into words, expanding camel case.
//  4. Aggregate scores every cross pair of tokens and the full strings with
//     four metrics (Double Metaphone, Jaro-Winkler, Levenshtein, bigram
//     Jaccard) and blends max, mean and full-string values.
//  5. FinalScore weights the four metrics, discards outliers and zero
//     scores, applies a penalty per discard and scales to 0-100.
//
// # Usage
//
//	engine, err := namematch.New(namematch.DefaultConfig(),
//	    namematch.WithRomanizer(translit.New()))
//	if err != nil {
//	    return err
//	}
//	result := engine.Compare("김현종", "Kim Hyun Jong")
//	fmt.Println(result.Score) // "NN.NN"
//
// # Alphabet
//
// The normalizer keeps ASCII letters plus the configured scripts (Hangul by
// default). Other scripts are dropped unless a Romanizer converts them to
// Latin letters first.
//
// # Thread Safety
//
// An Engine holds no mutable state and is safe for concurrent use.
package namematch
