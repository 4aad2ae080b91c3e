// ABOUTME: Sentinel errors returned by conversation sessions

package conversation

import "errors"

var (
	// ErrSessionBusy is returned when a call arrives while a message is still
	// being processed on the same session. Calls are rejected, not queued.
	ErrSessionBusy = errors.New("session busy: a message is already being processed")

	// ErrConversationEnded is returned by ProcessMessage after the conversation
	// ended. StartNewConversation makes the session usable again.
	ErrConversationEnded = errors.New("conversation ended")

	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrInvalidOptions wraps option validation failures.
	ErrInvalidOptions = errors.New("invalid conversation options")
)
