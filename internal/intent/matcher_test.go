// ABOUTME: Tests for intent classification scoring, tie-breaking and alternatives
// ABOUTME: Covers exact matches, entity extraction, word overlap, thresholds and sentiment

package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, defs ...Definition) *Catalog {
	t.Helper()
	c, err := NewCatalog(defs...)
	require.NoError(t, err)
	return c
}

func arCatalog(t *testing.T) *Catalog {
	return newTestCatalog(t,
		Definition{Name: "greeting", Examples: []string{"hello"}},
		Definition{Name: "place_object", Examples: []string{"place a {object} here"}, EntityTypes: []string{"object"}},
	)
}

func TestClassify_ExactExample(t *testing.T) {
	res := Classify("Hello", arCatalog(t), DefaultMatchOptions())

	want := Result{
		Query:  "hello",
		Intent: Match{Name: "greeting", Confidence: 1.0},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_ExactExampleIgnoresCaseAndWhitespace(t *testing.T) {
	catalog := newTestCatalog(t,
		Definition{Name: "greeting", Examples: []string{"Good Morning"}},
		Definition{Name: "help", Examples: []string{"what can you do"}},
	)

	for _, utterance := range []string{"good morning", "GOOD MORNING", "  Good Morning\t", "\ngood MORNING "} {
		res := Classify(utterance, catalog, DefaultMatchOptions())
		assert.Equal(t, "greeting", res.Intent.Name, "utterance %q", utterance)
		assert.Equal(t, 1.0, res.Intent.Confidence, "utterance %q", utterance)
	}
}

func TestClassify_ExtractsEntity(t *testing.T) {
	res := Classify("place a cube here", arCatalog(t), DefaultMatchOptions())

	assert.Equal(t, "place_object", res.Intent.Name)
	assert.Equal(t, 1.0, res.Intent.Confidence)
	require.Len(t, res.Intent.Entities, 1)
	assert.Equal(t, Entity{Type: "object", Value: "cube", Text: "cube"}, res.Intent.Entities[0])
}

func TestClassify_EntitiesFollowPlaceholderOrder(t *testing.T) {
	catalog := newTestCatalog(t, Definition{
		Name:        "move_object",
		Examples:    []string{"move the {object} to the {location}"},
		EntityTypes: []string{"location", "object"},
	})

	res := Classify("Move the red chair to the kitchen", catalog, DefaultMatchOptions())

	require.Len(t, res.Intent.Entities, 2)
	assert.Equal(t, "object", res.Intent.Entities[0].Type)
	assert.Equal(t, "red chair", res.Intent.Entities[0].Value)
	assert.Equal(t, "location", res.Intent.Entities[1].Type)
	assert.Equal(t, "kitchen", res.Intent.Entities[1].Value)

	loc, ok := res.Intent.Entity("location")
	assert.True(t, ok)
	assert.Equal(t, "kitchen", loc.Value)
}

func TestClassify_UnrelatedFallsBack(t *testing.T) {
	res := Classify("xyz completely unrelated", arCatalog(t), DefaultMatchOptions())

	assert.Equal(t, FallbackIntent, res.Intent.Name)
	assert.Equal(t, 0.0, res.Intent.Confidence)
	assert.Empty(t, res.Intent.Entities)
	assert.Empty(t, res.Alternatives)
	assert.True(t, res.IsFallback())
}

func TestClassify_PartialOverlap(t *testing.T) {
	res := Classify("place a", arCatalog(t), DefaultMatchOptions())

	assert.Equal(t, "place_object", res.Intent.Name)
	assert.InDelta(t, 2.0/3.0, res.Intent.Confidence, 1e-9)
	assert.Empty(t, res.Intent.Entities, "word overlap never extracts entities")
}

func TestClassify_BelowThresholdNormalizesToFallback(t *testing.T) {
	opts := DefaultMatchOptions()
	opts.ConfidenceThreshold = 0.9

	res := Classify("place a", arCatalog(t), opts)

	assert.Equal(t, FallbackIntent, res.Intent.Name)
	assert.Equal(t, 0.0, res.Intent.Confidence)
	assert.Empty(t, res.Intent.Entities)
	assert.Empty(t, res.Alternatives)
}

func TestClassify_EmptyOrNilCatalog(t *testing.T) {
	assert.Equal(t, FallbackIntent, Classify("hello", nil, DefaultMatchOptions()).Intent.Name)
	assert.Equal(t, FallbackIntent, Classify("hello", newTestCatalog(t), DefaultMatchOptions()).Intent.Name)
}

func TestClassify_TiesKeepFirstRegistered(t *testing.T) {
	catalog := newTestCatalog(t,
		Definition{Name: "lights_on", Examples: []string{"turn on the light"}},
		Definition{Name: "lamp_on", Examples: []string{"turn on the light"}},
	)

	res := Classify("turn on the light", catalog, DefaultMatchOptions())

	assert.Equal(t, "lights_on", res.Intent.Name)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "lamp_on", res.Alternatives[0].Name)
	assert.Equal(t, 1.0, res.Alternatives[0].Confidence)
}

func TestClassify_AlternativesCapped(t *testing.T) {
	catalog := newTestCatalog(t,
		Definition{Name: "menu", Examples: []string{"show me the menu"}},
		Definition{Name: "map", Examples: []string{"show me the map"}},
		Definition{Name: "help", Examples: []string{"show me the help"}},
	)

	res := Classify("show me the", catalog, DefaultMatchOptions())
	assert.Equal(t, "menu", res.Intent.Name)
	assert.InDelta(t, 0.75, res.Intent.Confidence, 1e-9)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "map", res.Alternatives[0].Name)

	opts := DefaultMatchOptions()
	opts.MaxAlternatives = 5
	res = Classify("show me the", catalog, opts)
	require.Len(t, res.Alternatives, 2)
	assert.Equal(t, "map", res.Alternatives[0].Name)
	assert.Equal(t, "help", res.Alternatives[1].Name)

	opts.MaxAlternatives = 0
	res = Classify("show me the", catalog, opts)
	assert.Empty(t, res.Alternatives)
}

func TestClassify_PrimaryNeverInAlternatives(t *testing.T) {
	catalog := newTestCatalog(t,
		Definition{Name: "open_door", Examples: []string{"open the door please", "open the door"}},
		Definition{Name: "open_window", Examples: []string{"open the window"}},
	)
	opts := DefaultMatchOptions()
	opts.MaxAlternatives = 3

	res := Classify("open the door", catalog, opts)

	assert.Equal(t, "open_door", res.Intent.Name)
	assert.Equal(t, 1.0, res.Intent.Confidence)
	for _, alt := range res.Alternatives {
		assert.NotEqual(t, res.Intent.Name, alt.Name)
	}
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "open_window", res.Alternatives[0].Name)
}

func TestClassify_RepeatedUtteranceWordsCountEachTime(t *testing.T) {
	catalog := newTestCatalog(t, Definition{Name: "greeting", Examples: []string{"hello there friend"}})

	res := Classify("hello hello", catalog, DefaultMatchOptions())
	assert.InDelta(t, 2.0/3.0, res.Intent.Confidence, 1e-9)

	res = Classify("hello hello hello hello", catalog, DefaultMatchOptions())
	assert.Equal(t, 1.0, res.Intent.Confidence, "overlap ratio is clamped")
}

func TestClassify_UndeclaredPlaceholderStaysLiteral(t *testing.T) {
	catalog := newTestCatalog(t, Definition{Name: "say", Examples: []string{"say {word}"}})

	res := Classify("say {word}", catalog, DefaultMatchOptions())
	assert.Equal(t, 1.0, res.Intent.Confidence)
	assert.Empty(t, res.Intent.Entities)

	res = Classify("say hi", catalog, DefaultMatchOptions())
	assert.Equal(t, "say", res.Intent.Name)
	assert.Empty(t, res.Intent.Entities)
}

func TestClassify_EscapesMetacharacters(t *testing.T) {
	catalog := newTestCatalog(t, Definition{Name: "math", Examples: []string{"what is 2+2?"}})

	res := Classify("What is 2+2?", catalog, DefaultMatchOptions())
	assert.Equal(t, 1.0, res.Intent.Confidence)

	res = Classify("what is 222", catalog, DefaultMatchOptions())
	assert.Less(t, res.Intent.Confidence, 1.0)
}

func TestClassify_ConfidenceAlwaysInRange(t *testing.T) {
	catalog := newTestCatalog(t,
		Definition{Name: "greeting", Examples: []string{"hello", "hi there", "hey hey"}},
		Definition{Name: "place_object", Examples: []string{"place a {object} here", "put {object} down"}, EntityTypes: []string{"object"}},
		Definition{Name: "empty"},
		Definition{Name: "blank", Examples: []string{"", "   "}},
	)
	opts := DefaultMatchOptions()
	opts.ConfidenceThreshold = 0
	opts.MaxAlternatives = 10

	utterances := []string{"", " ", "hello", "hey hey hey hey hey", "place a place a here here", "put it down", "zzz"}
	for _, u := range utterances {
		res := Classify(u, catalog, opts)
		assert.GreaterOrEqual(t, res.Intent.Confidence, 0.0, "utterance %q", u)
		assert.LessOrEqual(t, res.Intent.Confidence, 1.0, "utterance %q", u)
		assert.LessOrEqual(t, len(res.Alternatives), opts.MaxAlternatives)
		for _, alt := range res.Alternatives {
			assert.GreaterOrEqual(t, alt.Confidence, 0.0)
			assert.LessOrEqual(t, alt.Confidence, 1.0)
			assert.NotEqual(t, res.Intent.Name, alt.Name)
		}
	}
}

func TestClassify_Sentiment(t *testing.T) {
	catalog := arCatalog(t)

	res := Classify("hello", catalog, DefaultMatchOptions())
	assert.Nil(t, res.Sentiment, "sentiment is off by default")

	opts := DefaultMatchOptions()
	opts.EnableSentiment = true

	res = Classify("This is great, thanks!", catalog, opts)
	require.NotNil(t, res.Sentiment)
	assert.Equal(t, 1.0, *res.Sentiment)
	assert.Equal(t, FallbackIntent, res.Intent.Name, "sentiment does not affect intent")

	res = Classify("hello", catalog, opts)
	require.NotNil(t, res.Sentiment)
	assert.Equal(t, 0.0, *res.Sentiment)
	assert.Equal(t, 1.0, res.Intent.Confidence)
}

func TestMatcher_BindsCatalogAndOptions(t *testing.T) {
	catalog := arCatalog(t)
	opts := DefaultMatchOptions()
	opts.EnableSentiment = true
	m := NewMatcher(catalog, opts, nil)

	res := m.Classify("place a lamp here")
	assert.Equal(t, "place_object", res.Intent.Name)
	assert.NotNil(t, res.Sentiment)
	assert.Same(t, catalog, m.Catalog())
	assert.Equal(t, opts, m.Options())

	empty := NewMatcher(nil, DefaultMatchOptions(), nil)
	assert.Equal(t, FallbackIntent, empty.Classify("hello").Intent.Name)
}
