// ABOUTME: Core data types for intent definitions and classification results
// ABOUTME: Definition, Entity, Match and Result are plain values safe to copy

package intent

// FallbackIntent is the intent name returned when nothing clears the confidence threshold.
const FallbackIntent = "fallback"

// Definition describes one intent: its name, example phrasings, and the entity
// types its placeholders may refer to. Examples may contain {type} placeholders;
// only placeholders whose type is listed in EntityTypes capture entities.
type Definition struct {
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Examples    []string `json:"examples" yaml:"examples" toml:"examples"`
	EntityTypes []string `json:"entity_types,omitempty" yaml:"entity_types" toml:"entity_types"`
}

// clone returns a deep copy so catalog entries never alias caller slices.
func (d Definition) clone() Definition {
	out := Definition{Name: d.Name}
	if d.Examples != nil {
		out.Examples = append([]string(nil), d.Examples...)
	}
	if d.EntityTypes != nil {
		out.EntityTypes = append([]string(nil), d.EntityTypes...)
	}
	return out
}

// Entity is a span of the utterance captured by a placeholder.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Match is a scored intent candidate.
type Match struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Entities   []Entity `json:"entities,omitempty"`
}

// Entity returns the first entity of the given type and whether one was found.
func (m Match) Entity(entityType string) (Entity, bool) {
	for _, e := range m.Entities {
		if e.Type == entityType {
			return e, true
		}
	}
	return Entity{}, false
}

// Result is the outcome of classifying one utterance.
type Result struct {
	Query        string   `json:"query"`
	Intent       Match    `json:"intent"`
	Alternatives []Match  `json:"alternatives,omitempty"`
	Sentiment    *float64 `json:"sentiment,omitempty"`
}

// IsFallback reports whether the classification missed every intent.
func (r Result) IsFallback() bool {
	return r.Intent.Name == FallbackIntent
}
