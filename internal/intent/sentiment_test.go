// ABOUTME: Tests for lexicon sentiment scoring

package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"no lexicon words", "place a cube here", 0},
		{"empty", "", 0},
		{"all positive", "great job, thanks", 1},
		{"all negative", "this is terrible and broken", -1},
		{"balanced", "good but bad", 0},
		{"mostly positive", "love it, love it, hate the color", 1.0 / 3.0},
		{"punctuation ignored", "Awesome!!!", 1},
		{"case ignored", "HORRIBLE", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreSentiment(tt.text), 1e-9)
		})
	}
}
