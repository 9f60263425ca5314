// Package facematch turns raw face-similarity results into a boolean match
// decision against a fixed threshold.
package facematch

import "github.com/target/ekyc-verify/internal/domain/model"

// MatchThreshold is the minimum similarity (0-100, inclusive) for the best
// candidate pairing to count as a match.
const MatchThreshold = 90.0

// MsgNoFaceMatch is persisted when no candidate pairing clears the threshold.
const MsgNoFaceMatch = "No face matches"

// Decision is the evaluator output. Confidence is the best pairing's
// similarity, or 0 when there is no match.
type Decision struct {
	Match      bool
	Confidence float64
}

// Evaluate applies the threshold rule to the candidate pairings: match iff at
// least one pairing exists and the first (best) pairing's similarity is at or
// above the threshold.
func Evaluate(matches []model.FaceMatch) Decision {
	if len(matches) == 0 || matches[0].Similarity < MatchThreshold {
		return Decision{}
	}
	return Decision{Match: true, Confidence: matches[0].Similarity}
}
