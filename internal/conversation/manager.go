// ABOUTME: Manager runs one dialogue session: classify, dispatch, record history, end on signal or inactivity
// ABOUTME: Classification and handlers run outside the session lock; history and events are ordered under it

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/converse/internal/builtins"
	"github.com/2389/converse/internal/handler"
	"github.com/2389/converse/internal/history"
	"github.com/2389/converse/internal/intent"
)

// ApologyText is the assistant reply recorded when no handler, fallback
// included, could answer a turn.
const ApologyText = "I'm sorry, something went wrong. Please try again."

// Context value keys handed to handlers alongside AdditionalContext.
// Session keys win over additional context on collision.
const (
	ValueConversationID  = "conversationId"
	ValueMessageCount    = "messageCount"
	ValuePendingFollowUp = handler.ValuePendingFollowUp
	ValueHistory         = "history"
)

// Manager is a single conversation session. It is safe for concurrent use,
// but only one ProcessMessage runs at a time; overlapping calls get
// ErrSessionBusy.
type Manager struct {
	opts Options

	catalog  *intent.Catalog
	matcher  *intent.Matcher
	registry *handler.Registry
	events   *Broadcaster

	mu              sync.Mutex
	state           State
	conversationID  string
	endedID         string // owner of the retained history while ended
	history         *history.Ring[Message]
	pendingFollowUp string
	busy            bool
	endPending      bool
	closed          bool

	timer    *time.Timer
	timerGen uint64

	logger *slog.Logger
}

// New creates an idle session. Zero MaxHistorySize and InactivityTimeout take
// their defaults. The inactivity timer is armed by the first accepted message
// or by StartNewConversation. Pass nil logger for default.
func New(opts Options, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxHistorySize == 0 {
		opts.MaxHistorySize = history.DefaultSize
	}
	if opts.InactivityTimeout == 0 {
		opts.InactivityTimeout = DefaultInactivityTimeout
	}
	opts.InitialState = maps.Clone(opts.InitialState)
	opts.AdditionalContext = maps.Clone(opts.AdditionalContext)

	catalog, err := intent.NewCatalog()
	if err != nil {
		return nil, err
	}
	registry := handler.NewRegistry(opts.InitialState, logger)

	if opts.BuiltinIntents {
		for _, def := range builtins.Intents() {
			if err := catalog.Add(def); err != nil {
				return nil, fmt.Errorf("adding built-in intent %q: %w", def.Name, err)
			}
		}
		if err := registry.RegisterPack(builtins.Pack()); err != nil {
			return nil, fmt.Errorf("registering built-in handlers: %w", err)
		}
		registry.SetFallbackHandler(builtins.Fallback)
	}
	for _, def := range opts.CustomIntents {
		if err := catalog.Add(def); err != nil {
			return nil, fmt.Errorf("adding custom intent %q: %w", def.Name, err)
		}
	}

	m := &Manager{
		opts:           opts,
		catalog:        catalog,
		matcher:        intent.NewMatcher(catalog, opts.matchOptions(), logger),
		registry:       registry,
		events:         NewBroadcaster(logger),
		state:          StateIdle,
		conversationID: uuid.New().String(),
		history:        history.New[Message](opts.MaxHistorySize),
	}
	m.logger = logger.With("component", "conversation")

	m.logger.Debug("session created",
		"conversation_id", m.conversationID,
		"intents", catalog.Len(),
		"handlers", len(registry.Handlers()))
	return m, nil
}

// ProcessMessage runs one turn: it records the user message, classifies it,
// dispatches to the intent's handler, and records and returns the assistant
// reply. If the fallback handler fails, the session records ApologyText, goes
// through the error state back to idle, and returns the apology message
// together with an error wrapping handler.ErrFallbackFailed.
func (m *Manager) ProcessMessage(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return Message{}, ErrSessionClosed
	case m.busy:
		m.mu.Unlock()
		return Message{}, ErrSessionBusy
	case m.state == StateEnded:
		m.mu.Unlock()
		return Message{}, ErrConversationEnded
	}

	m.busy = true
	m.setStateLocked(StateProcessing)
	m.appendLocked(Message{
		ID:        uuid.New().String(),
		Text:      text,
		IsUser:    true,
		Timestamp: time.Now(),
	})
	m.resetTimerLocked()
	values := m.handlerValuesLocked()
	m.mu.Unlock()

	classification := m.matcher.Classify(text)
	res, handleErr := m.registry.Handle(ctx, classification, values)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.busy = false }()

	if handleErr != nil {
		return m.failTurnLocked(classification, handleErr), handleErr
	}

	m.setStateLocked(StateResponding)
	reply := Message{
		ID:           uuid.New().String(),
		Text:         res.ResponseText,
		Timestamp:    time.Now(),
		Intent:       classification.Intent.Name,
		Action:       res.Action,
		ActionParams: maps.Clone(res.ActionParams),
		Metadata: map[string]any{
			MetaSuccess:         res.Success,
			MetaFollowUpIntent:  res.FollowUpIntent,
			MetaEndConversation: res.EndConversation,
			MetaConfidence:      classification.Intent.Confidence,
		},
	}
	if classification.Sentiment != nil {
		reply.Metadata[MetaSentiment] = *classification.Sentiment
	}
	m.appendLocked(reply)
	m.pendingFollowUp = res.FollowUpIntent
	m.events.Publish(m.newEvent(EventResponse, func(e *Event) {
		msg := reply.clone()
		e.Message = &msg
	}))

	m.logger.Debug("turn complete",
		"conversation_id", m.conversationID,
		"intent", classification.Intent.Name,
		"confidence", classification.Intent.Confidence,
		"success", res.Success,
		"end", res.EndConversation)

	switch {
	case res.EndConversation:
		m.endLocked("handler")
	case m.endPending && !m.closed:
		m.endLocked("deferred")
	default:
		m.setStateLocked(StateIdle)
	}
	return reply.clone(), nil
}

// failTurnLocked records the apology and walks error -> idle.
func (m *Manager) failTurnLocked(classification intent.Result, err error) Message {
	m.setStateLocked(StateError)
	apology := Message{
		ID:        uuid.New().String(),
		Text:      ApologyText,
		Timestamp: time.Now(),
		Intent:    classification.Intent.Name,
		Metadata: map[string]any{
			MetaSuccess: false,
			MetaError:   err.Error(),
		},
	}
	m.appendLocked(apology)
	m.pendingFollowUp = ""
	m.events.Publish(m.newEvent(EventError, func(e *Event) { e.Err = err }))

	m.logger.Error("turn failed",
		"conversation_id", m.conversationID,
		"intent", classification.Intent.Name,
		"error", err)

	if m.endPending && !m.closed {
		m.endLocked("deferred")
	} else {
		m.setStateLocked(StateIdle)
	}
	return apology.clone()
}

// EndConversation ends the current conversation. It is a no-op when already
// ended. During an in-flight turn the end is applied once the turn completes.
func (m *Manager) EndConversation() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.state == StateEnded {
		return
	}
	if m.busy {
		m.endPending = true
		return
	}
	m.endLocked("explicit")
}

// StartNewConversation ends the current conversation if needed, then begins a
// fresh one: empty history, initial conversation state, new ID, armed timer.
func (m *Manager) StartNewConversation() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSessionClosed
	}
	if m.busy {
		return ErrSessionBusy
	}
	if m.state != StateEnded {
		m.endLocked("restart")
	}

	m.history.Clear()
	m.registry.ResetState(m.opts.InitialState)
	m.pendingFollowUp = ""

	now := time.Now()
	m.events.Publish(m.newEvent(EventConversationStart, func(e *Event) {
		e.Start = &StartInfo{ConversationID: m.conversationID, Timestamp: now}
	}))
	m.setStateLocked(StateIdle)
	m.resetTimerLocked()

	m.logger.Info("conversation started", "conversation_id", m.conversationID)
	return nil
}

// Close stops the inactivity timer and closes every subscriber channel. The
// session rejects further messages. Safe to call multiple times.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopTimerLocked()
	m.mu.Unlock()

	m.events.Close()
	m.logger.Debug("session closed")
}

// endLocked performs the end transition. Callers check the ended state first.
func (m *Manager) endLocked(reason string) {
	m.stopTimerLocked()
	m.endPending = false

	info := &EndInfo{
		ConversationID: m.conversationID,
		MessageCount:   m.history.Len(),
	}
	first, okFirst := m.history.First()
	last, okLast := m.history.Last()
	if okFirst && okLast {
		info.Duration = last.Timestamp.Sub(first.Timestamp)
	}

	m.setStateLocked(StateEnded)
	m.events.Publish(m.newEvent(EventConversationEnd, func(e *Event) { e.End = info }))

	m.logger.Info("conversation ended",
		"conversation_id", info.ConversationID,
		"reason", reason,
		"messages", info.MessageCount,
		"duration", info.Duration)

	m.endedID = info.ConversationID
	m.conversationID = uuid.New().String()
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.logger.Debug("state change", "from", m.state, "to", s)
	m.state = s
	m.events.Publish(m.newEvent(EventStateChange, func(e *Event) { e.State = s }))
}

func (m *Manager) appendLocked(msg Message) {
	if m.history.Push(msg) {
		m.logger.Debug("history full, dropped oldest message", "max", m.history.Cap())
	}
	m.events.Publish(m.newEvent(EventMessage, func(e *Event) {
		c := msg.clone()
		e.Message = &c
	}))
}

func (m *Manager) newEvent(t EventType, fill func(*Event)) Event {
	e := Event{Type: t, ConversationID: m.conversationID, Timestamp: time.Now()}
	if fill != nil {
		fill(&e)
	}
	return e
}

func (m *Manager) handlerValuesLocked() map[string]any {
	values := make(map[string]any, len(m.opts.AdditionalContext)+4)
	maps.Copy(values, m.opts.AdditionalContext)
	values[ValueConversationID] = m.conversationID
	values[ValueMessageCount] = m.history.Len()
	values[ValuePendingFollowUp] = m.pendingFollowUp
	values[ValueHistory] = m.historyLocked()
	return values
}

// resetTimerLocked cancels any pending inactivity timer and arms a new one.
func (m *Manager) resetTimerLocked() {
	m.stopTimerLocked()
	if !m.opts.AutoEndConversation || m.closed {
		return
	}
	gen := m.timerGen
	m.timer = time.AfterFunc(m.opts.InactivityTimeout, func() { m.onInactivity(gen) })
}

// stopTimerLocked cancels the timer. Bumping the generation makes a callback
// that already started a no-op.
func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGen++
}

func (m *Manager) onInactivity(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.timerGen || m.closed || m.state == StateEnded {
		return
	}
	if m.busy {
		m.endPending = true
		return
	}
	m.endLocked("inactivity")
}

// GetState returns the current dialogue state.
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// GetConversationState returns a snapshot of the handler-owned state map.
func (m *Manager) GetConversationState() map[string]any {
	return m.registry.State()
}

// GetMessageHistory returns copies of the retained messages, oldest first.
func (m *Manager) GetMessageHistory() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyLocked()
}

func (m *Manager) historyLocked() []Message {
	msgs := m.history.Snapshot()
	for i := range msgs {
		msgs[i] = msgs[i].clone()
	}
	return msgs
}

// GetConversationId returns the current conversation ID. After an end it is
// already the ID of the next conversation.
func (m *Manager) GetConversationId() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

// GetTranscript returns the retained messages together with the ID of the
// conversation they belong to. While the session is ended that is the ended
// conversation, not the next one reported by GetConversationId.
func (m *Manager) GetTranscript() (string, []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.conversationID
	if m.state == StateEnded {
		id = m.endedID
	}
	return id, m.historyLocked()
}

// AddCustomIntent adds or overwrites an intent in this session's catalog.
func (m *Manager) AddCustomIntent(def intent.Definition) error {
	if err := m.catalog.Add(def); err != nil {
		return err
	}
	m.logger.Debug("intent added", "intent", def.Name, "examples", len(def.Examples))
	return nil
}

// RemoveCustomIntent removes an intent. Returns false if it was not present.
func (m *Manager) RemoveCustomIntent(name string) bool {
	return m.catalog.Remove(name)
}

// RegisterHandler installs fn for intentName, replacing any existing handler.
func (m *Manager) RegisterHandler(intentName string, fn handler.Func) error {
	return m.registry.RegisterHandler(intentName, fn)
}

// SetFallbackHandler replaces the fallback handler. nil restores the default.
func (m *Manager) SetFallbackHandler(fn handler.Func) {
	m.registry.SetFallbackHandler(fn)
}

// RegisterPack installs a handler pack. See handler.Registry.RegisterPack.
func (m *Manager) RegisterPack(pack *handler.Pack) error {
	return m.registry.RegisterPack(pack)
}

// Subscribe returns a channel of session events of the given types, or all
// types when none are given. See Broadcaster.Subscribe.
func (m *Manager) Subscribe(ctx context.Context, types ...EventType) (<-chan Event, string) {
	return m.events.Subscribe(ctx, types...)
}

// Unsubscribe removes a subscription by ID.
func (m *Manager) Unsubscribe(subID string) bool {
	return m.events.Unsubscribe(subID)
}

// Intents returns the session's intent definitions in registration order.
func (m *Manager) Intents() []intent.Definition {
	return m.catalog.All()
}

// Classify classifies text with the session's catalog and options without
// touching history or state.
func (m *Manager) Classify(text string) intent.Result {
	return m.matcher.Classify(text)
}

// Handlers returns the intent names that have a registered handler.
func (m *Manager) Handlers() []string {
	return m.registry.Handlers()
}

// IsFallbackFailure reports whether err came from a failed fallback handler.
func IsFallbackFailure(err error) bool {
	return errors.Is(err, handler.ErrFallbackFailed)
}
