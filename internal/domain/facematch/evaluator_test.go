package facematch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/ekyc-verify/internal/domain/model"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		matches        []model.FaceMatch
		wantMatch      bool
		wantConfidence float64
	}{
		{
			name:      "no pairings",
			matches:   nil,
			wantMatch: false,
		},
		{
			name:      "empty pairings",
			matches:   []model.FaceMatch{},
			wantMatch: false,
		},
		{
			name:           "threshold is inclusive",
			matches:        []model.FaceMatch{{Similarity: 90.0}},
			wantMatch:      true,
			wantConfidence: 90.0,
		},
		{
			name:      "just below threshold",
			matches:   []model.FaceMatch{{Similarity: 89.999}},
			wantMatch: false,
		},
		{
			name:           "high similarity",
			matches:        []model.FaceMatch{{Similarity: 99.7}},
			wantMatch:      true,
			wantConfidence: 99.7,
		},
		{
			name: "only the first pairing is consulted",
			matches: []model.FaceMatch{
				{Similarity: 80.0},
				{Similarity: 99.0},
			},
			wantMatch: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := Evaluate(tc.matches)
			assert.Equal(t, tc.wantMatch, d.Match)
			assert.InDelta(t, tc.wantConfidence, d.Confidence, 0.0001)
		})
	}
}
