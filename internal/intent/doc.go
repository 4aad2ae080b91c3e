// Package intent provides rule-based intent classification.
//
// # Overview
//
// An intent is a named category of user request with example phrasings. The
// Catalog stores intents in registration order; Classify scores an utterance
// against every example and returns the best intent, its entities, and ranked
// alternatives.
//
// # Example Phrases
//
// Examples may contain placeholders naming an entity type:
//
//	intent.Definition{
//	    Name:        "place_object",
//	    Examples:    []string{"place a {object} here", "put the {object} on the {surface}"},
//	    EntityTypes: []string{"object", "surface"},
//	}
//
// Only placeholders whose type appears in EntityTypes capture text. Patterns
// are compiled once when the intent is added.
//
// # Scoring
//
//  1. The utterance is lowercased and trimmed.
//  2. An exact structural match against an example scores 1.0 and yields one
//     Entity per placeholder, in placeholder order.
//  3. Otherwise the score is the share of example words (placeholders
//     excluded) that appear in the utterance. Repeated utterance words count
//     every time, so the ratio is clamped to 1.
//  4. The first example reaching the highest score wins; later ties do not
//     replace it.
//  5. A best score under ConfidenceThreshold returns FallbackIntent with
//     confidence 0.
//
// # Sentiment
//
// With EnableSentiment set, Result.Sentiment carries a lexicon score in
// [-1, 1]. It never influences intent confidence.
package intent
