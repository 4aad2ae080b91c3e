// ABOUTME: Construction-time options for a conversation session
// ABOUTME: DefaultOptions mirrors the documented defaults; Validate rejects out-of-range values

package conversation

import (
	"fmt"
	"time"

	"github.com/2389/converse/internal/history"
	"github.com/2389/converse/internal/intent"
)

// DefaultInactivityTimeout ends an idle conversation after five minutes.
const DefaultInactivityTimeout = 5 * time.Minute

// Options configures one session. Start from DefaultOptions: New only fills
// in a zero MaxHistorySize and a zero InactivityTimeout. A zero
// ConfidenceThreshold, MaxAlternativeIntents or AutoEndConversation is used
// as given.
type Options struct {
	ConfidenceThreshold   float64
	MaxAlternativeIntents int
	EnableSentiment       bool

	// CustomIntents are registered after the built-in intents, so a custom
	// intent with a built-in name replaces it.
	CustomIntents  []intent.Definition
	BuiltinIntents bool

	MaxHistorySize      int
	AutoEndConversation bool
	InactivityTimeout   time.Duration

	InitialState      map[string]any
	AdditionalContext map[string]any
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold:   intent.DefaultConfidenceThreshold,
		MaxAlternativeIntents: intent.DefaultMaxAlternatives,
		MaxHistorySize:        history.DefaultSize,
		AutoEndConversation:   true,
		InactivityTimeout:     DefaultInactivityTimeout,
	}
}

// Validate returns the first invalid option found.
func (o Options) Validate() error {
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold %v outside [0,1]", ErrInvalidOptions, o.ConfidenceThreshold)
	}
	if o.MaxAlternativeIntents < 0 {
		return fmt.Errorf("%w: max alternative intents must not be negative", ErrInvalidOptions)
	}
	if o.MaxHistorySize < 0 {
		return fmt.Errorf("%w: max history size must not be negative", ErrInvalidOptions)
	}
	if o.InactivityTimeout < 0 {
		return fmt.Errorf("%w: inactivity timeout must not be negative", ErrInvalidOptions)
	}
	return nil
}

// matchOptions derives the matcher options.
func (o Options) matchOptions() intent.MatchOptions {
	return intent.MatchOptions{
		ConfidenceThreshold: o.ConfidenceThreshold,
		MaxAlternatives:     o.MaxAlternativeIntents,
		EnableSentiment:     o.EnableSentiment,
	}
}
