// ABOUTME: Session states, conversation messages, and the events a session emits
// ABOUTME: Messages are copied on the way out so appended history stays immutable

package conversation

import (
	"maps"
	"time"
)

// State is a step of the dialogue state machine.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateResponding State = "responding"
	StateEnded      State = "ended"
	StateError      State = "error"
)

// Message metadata keys set on assistant messages.
const (
	MetaSuccess         = "success"
	MetaFollowUpIntent  = "followUpIntent"
	MetaEndConversation = "endConversation"
	MetaConfidence      = "confidence"
	MetaSentiment       = "sentiment"
	MetaError           = "error"
)

// Message is one turn in the conversation history.
type Message struct {
	ID           string         `json:"id"`
	Text         string         `json:"text"`
	IsUser       bool           `json:"is_user"`
	Timestamp    time.Time      `json:"timestamp"`
	Intent       string         `json:"intent,omitempty"`
	Action       string         `json:"action,omitempty"`
	ActionParams map[string]any `json:"action_params,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (m Message) clone() Message {
	if m.ActionParams != nil {
		m.ActionParams = maps.Clone(m.ActionParams)
	}
	if m.Metadata != nil {
		m.Metadata = maps.Clone(m.Metadata)
	}
	return m
}

// EventType names a kind of session event.
type EventType string

const (
	EventStateChange       EventType = "stateChange"
	EventMessage           EventType = "message"
	EventResponse          EventType = "response"
	EventConversationStart EventType = "conversationStart"
	EventConversationEnd   EventType = "conversationEnd"
	EventError             EventType = "error"
)

// StartInfo is the payload of a conversationStart event.
type StartInfo struct {
	ConversationID string    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// EndInfo is the payload of a conversationEnd event.
type EndInfo struct {
	ConversationID string        `json:"conversation_id"`
	MessageCount   int           `json:"message_count"`
	Duration       time.Duration `json:"duration"` // last message minus first message
}

// Event is published on every state change, message, and session boundary.
// Only the field matching Type is set.
type Event struct {
	Type           EventType
	ConversationID string
	Timestamp      time.Time

	State   State      // stateChange
	Message *Message   // message, response
	Start   *StartInfo // conversationStart
	End     *EndInfo   // conversationEnd
	Err     error      // error
}
