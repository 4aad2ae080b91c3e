// Package conversation runs dialogue sessions on top of the intent matcher and
// the handler registry.
//
// # Sessions
//
// A Manager is one session. It owns its intent catalog, handler registry,
// bounded message history, inactivity timer and event broadcaster, and shares
// none of them with other sessions:
//
//	m, err := conversation.New(conversation.DefaultOptions(), logger)
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	reply, err := m.ProcessMessage(ctx, "place a cube here")
//
// # State Machine
//
// A turn moves idle -> processing -> responding -> idle. A handler result with
// EndConversation set, an explicit EndConversation call, or the inactivity
// timer moves the session to ended, where ProcessMessage returns
// ErrConversationEnded until StartNewConversation. When the fallback handler
// fails, the session records ApologyText and passes through error back to idle.
//
// Only one turn runs at a time. A ProcessMessage or StartNewConversation call
// made while a turn is in flight returns ErrSessionBusy. An end requested
// during a turn is applied when the turn completes.
//
// # Events
//
// Subscribe returns a channel of Events, optionally filtered by type. Every
// state change emits stateChange; appended messages emit message; assistant
// replies also emit response. Delivery is non-blocking: a full subscriber
// channel drops stateChange, message and response events rather than stalling
// the session. conversationStart, conversationEnd and error are never dropped;
// they push out the oldest buffered event of the other kinds.
package conversation
