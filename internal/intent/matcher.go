// ABOUTME: Rule-based intent classification over a Catalog
// ABOUTME: Exact pattern matches score 1.0, everything else falls back to word overlap

package intent

import (
	"log/slog"
	"strings"
)

const (
	// DefaultConfidenceThreshold is the minimum confidence accepted by default.
	DefaultConfidenceThreshold = 0.5

	// DefaultMaxAlternatives is the default cap on alternative intents.
	DefaultMaxAlternatives = 1
)

// MatchOptions tunes a single classification.
type MatchOptions struct {
	ConfidenceThreshold float64
	MaxAlternatives     int
	EnableSentiment     bool
}

// DefaultMatchOptions returns the documented defaults.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxAlternatives:     DefaultMaxAlternatives,
	}
}

// Normalize lowercases and trims an utterance the way the matcher sees it.
func Normalize(utterance string) string {
	return strings.ToLower(strings.TrimSpace(utterance))
}

// Classify scores utterance against every example of every intent in catalog
// and returns the best match. It never fails: a nil or empty catalog, or a best
// score under the threshold, yields the fallback intent with confidence 0.
//
// The best match is tracked with a strict greater-than, so equal scores keep
// whichever intent/example was scanned first.
func Classify(utterance string, catalog *Catalog, opts MatchOptions) Result {
	query := Normalize(utterance)
	result := Result{Query: query, Intent: Match{Name: FallbackIntent}}

	if opts.EnableSentiment {
		s := ScoreSentiment(query)
		result.Sentiment = &s
	}

	if catalog == nil {
		return result
	}

	words := strings.Fields(query)

	var (
		best    Match
		found   bool
		pending []Match // alternatives in the order they qualified
	)
	for _, e := range catalog.snapshot() {
		for _, ex := range e.examples {
			conf, entities := ex.score(query, words)
			candidate := Match{Name: e.def.Name, Confidence: conf, Entities: entities}

			if conf > best.Confidence {
				if found && best.Confidence >= opts.ConfidenceThreshold {
					pending = append(pending, best)
				}
				best, found = candidate, true
				continue
			}
			if conf >= opts.ConfidenceThreshold {
				pending = append(pending, candidate)
			}
		}
	}

	if !found || best.Confidence < opts.ConfidenceThreshold {
		return result
	}

	result.Intent = best
	result.Alternatives = selectAlternatives(best.Name, pending, opts.MaxAlternatives)
	return result
}

// selectAlternatives keeps the first qualifying match per intent, never the
// primary intent itself, up to limit entries.
func selectAlternatives(primary string, pending []Match, limit int) []Match {
	if limit <= 0 {
		return nil
	}
	seen := map[string]struct{}{primary: {}}
	var alts []Match
	for _, m := range pending {
		if len(alts) >= limit {
			break
		}
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		alts = append(alts, m)
	}
	return alts
}

// Matcher binds a catalog and options so callers classify with one argument.
type Matcher struct {
	catalog *Catalog
	opts    MatchOptions
	logger  *slog.Logger
}

// NewMatcher creates a matcher. Pass nil logger for default.
func NewMatcher(catalog *Catalog, opts MatchOptions, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog, _ = NewCatalog()
	}
	return &Matcher{
		catalog: catalog,
		opts:    opts,
		logger:  logger.With("component", "matcher"),
	}
}

// Classify classifies utterance against the bound catalog.
func (m *Matcher) Classify(utterance string) Result {
	res := Classify(utterance, m.catalog, m.opts)
	m.logger.Debug("utterance classified",
		"query", res.Query,
		"intent", res.Intent.Name,
		"confidence", res.Intent.Confidence,
		"entities", len(res.Intent.Entities),
		"alternatives", len(res.Alternatives))
	return res
}

// Catalog returns the bound catalog.
func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

// Options returns the bound match options.
func (m *Matcher) Options() MatchOptions {
	return m.opts
}
