// ABOUTME: Lexicon-based sentiment scoring, independent of intent confidence
// ABOUTME: Scores range from -1 (all negative words) to 1 (all positive words)

package intent

import (
	"strings"
	"unicode"
)

var positiveWords = map[string]struct{}{
	"amazing": {}, "awesome": {}, "beautiful": {}, "cool": {}, "excellent": {},
	"fantastic": {}, "fun": {}, "glad": {}, "good": {}, "great": {},
	"happy": {}, "like": {}, "love": {}, "nice": {}, "perfect": {},
	"thank": {}, "thanks": {}, "wonderful": {}, "yes": {},
}

var negativeWords = map[string]struct{}{
	"angry": {}, "annoying": {}, "awful": {}, "bad": {}, "boring": {},
	"broken": {}, "dislike": {}, "hate": {}, "horrible": {}, "no": {},
	"poor": {}, "sad": {}, "terrible": {}, "ugly": {}, "worse": {},
	"worst": {}, "wrong": {},
}

// ScoreSentiment returns (pos-neg)/(pos+neg) over the words of text, or 0 when
// no lexicon word occurs. Surrounding punctuation is ignored per word.
func ScoreSentiment(text string) float64 {
	var pos, neg int
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}
