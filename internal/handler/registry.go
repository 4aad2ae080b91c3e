// ABOUTME: Thread-safe registry mapping intent names to handler functions.
// ABOUTME: Owns the session's conversation state and recovers failed handlers via the fallback.

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/2389/converse/internal/intent"
)

// ErrFallbackFailed indicates the fallback handler itself failed. There is no
// second fallback, so the turn cannot produce a handled response.
var ErrFallbackFailed = errors.New("fallback handler failed")

// ErrHandlerPanic wraps a panic raised inside a handler.
var ErrHandlerPanic = errors.New("handler panicked")

// ErrInvalidHandler indicates a registration with an empty name or nil func.
var ErrInvalidHandler = errors.New("invalid handler")

// ErrHandlerCollision indicates a pack handler whose intent is already handled.
var ErrHandlerCollision = errors.New("handler collision")

// DefaultFallbackText is the response of the built-in fallback handler.
const DefaultFallbackText = "I'm sorry, I didn't understand that. Could you rephrase?"

// ValuePendingFollowUp is the context value key holding the previous turn's
// FollowUpIntent. Sessions set it on every call; it is empty when no follow-up
// is pending.
const ValuePendingFollowUp = "pendingFollowUp"

// Context is what a handler sees besides the classification itself.
type Context struct {
	// ConversationState is a snapshot taken before the call. Mutating it has no
	// effect; return UpdatedState instead.
	ConversationState map[string]any

	// Values carries caller-supplied context (session additional context,
	// conversation ID, and similar).
	Values map[string]any
}

// Value returns a caller-supplied context value.
func (c Context) Value(key string) (any, bool) {
	v, ok := c.Values[key]
	return v, ok
}

// PendingFollowUp returns the follow-up intent requested by the previous turn.
func (c Context) PendingFollowUp() string {
	s, _ := c.Values[ValuePendingFollowUp].(string)
	return s
}

// Result is what a handler returns for one turn.
type Result struct {
	ResponseText    string         `json:"response_text"`
	Success         bool           `json:"success"`
	Action          string         `json:"action,omitempty"`
	ActionParams    map[string]any `json:"action_params,omitempty"`
	UpdatedState    map[string]any `json:"updated_state,omitempty"`
	EndConversation bool           `json:"end_conversation,omitempty"`
	FollowUpIntent  string         `json:"follow_up_intent,omitempty"`
}

// Func turns a classified utterance into a response.
type Func func(ctx context.Context, classification intent.Result, hctx Context) (Result, error)

// DefaultFallback answers with DefaultFallbackText.
func DefaultFallback(_ context.Context, _ intent.Result, _ Context) (Result, error) {
	return Result{ResponseText: DefaultFallbackText, Success: false}, nil
}

// Registry dispatches classifications to handlers and keeps the conversation
// state shared by handlers of one session.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Func
	packs    map[string]string // intent name -> pack ID, for pack-registered handlers
	fallback Func

	stateMu sync.Mutex
	state   map[string]any

	logger *slog.Logger
}

// NewRegistry creates a registry whose conversation state starts as a copy of
// initialState. Pass nil logger for default.
func NewRegistry(initialState map[string]any, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Func),
		packs:    make(map[string]string),
		fallback: DefaultFallback,
		state:    cloneMap(initialState),
		logger:   logger.With("component", "handler_registry"),
	}
}

// RegisterHandler installs fn for intentName, replacing any existing handler.
func (r *Registry) RegisterHandler(intentName string, fn Func) error {
	if intentName == "" || fn == nil {
		return fmt.Errorf("%w: name and func are required", ErrInvalidHandler)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[intentName] = fn
	delete(r.packs, intentName)
	r.logger.Debug("handler registered", "intent", intentName)
	return nil
}

// UnregisterHandler removes the handler for intentName. Returns false if none existed.
func (r *Registry) UnregisterHandler(intentName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[intentName]; !ok {
		return false
	}
	delete(r.handlers, intentName)
	delete(r.packs, intentName)
	return true
}

// SetFallbackHandler replaces the fallback. nil restores DefaultFallback.
func (r *Registry) SetFallbackHandler(fn Func) {
	if fn == nil {
		fn = DefaultFallback
	}
	r.mu.Lock()
	r.fallback = fn
	r.mu.Unlock()
}

// HasHandler reports whether a non-fallback handler exists for intentName.
func (r *Registry) HasHandler(intentName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[intentName]
	return ok
}

// Handlers returns the handled intent names, sorted.
func (r *Registry) Handlers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}

// Handle routes classification to its handler, or the fallback when none is
// registered. A handler that errors or panics is logged and the fallback runs
// with the same classification and context. If the fallback fails too, Handle
// returns an error wrapping ErrFallbackFailed.
//
// After a successful call, the result's UpdatedState is shallow-merged into
// the stored conversation state.
func (r *Registry) Handle(ctx context.Context, classification intent.Result, extra map[string]any) (Result, error) {
	name := classification.Intent.Name

	r.mu.RLock()
	fn, found := r.handlers[name]
	fallback := r.fallback
	r.mu.RUnlock()

	hctx := Context{
		ConversationState: r.State(),
		Values:            cloneMap(extra),
	}

	if !found {
		fn = fallback
	}
	res, err := invoke(ctx, fn, classification, hctx)
	if err != nil && found {
		r.logger.Warn("intent handler failed, using fallback",
			"intent", name,
			"error", err)
		res, err = invoke(ctx, fallback, classification, hctx)
	}
	if err != nil {
		r.logger.Error("fallback handler failed",
			"intent", name,
			"error", err)
		return Result{}, fmt.Errorf("%w: intent %q: %w", ErrFallbackFailed, name, err)
	}

	if len(res.UpdatedState) > 0 {
		r.mergeState(res.UpdatedState)
	}
	return res, nil
}

// invoke calls fn, converting a panic into an error.
func invoke(ctx context.Context, fn Func, classification intent.Result, hctx Context) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return fn(ctx, classification, hctx)
}

// State returns a snapshot of the conversation state.
func (r *Registry) State() map[string]any {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return cloneMap(r.state)
}

// ResetState replaces the conversation state with a copy of initial.
func (r *Registry) ResetState(initial map[string]any) {
	r.stateMu.Lock()
	r.state = cloneMap(initial)
	r.stateMu.Unlock()
}

func (r *Registry) mergeState(updates map[string]any) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	maps.Copy(r.state, updates)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}
