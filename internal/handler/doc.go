// Package handler dispatches classified intents to application handlers.
//
// # Overview
//
// A Registry maps intent names to Funcs. Handle looks up the handler for the
// classified intent and falls back to the fallback handler when there is none:
//
//	reg := handler.NewRegistry(map[string]any{"mode": "edit"}, logger)
//	reg.RegisterHandler("greeting", func(ctx context.Context, c intent.Result, h handler.Context) (handler.Result, error) {
//	    return handler.Result{ResponseText: "Hi!", Success: true}, nil
//	})
//	res, err := reg.Handle(ctx, classification, nil)
//
// # Failure Handling
//
// A handler that returns an error or panics is logged and replaced, for that
// turn, by the fallback handler with the same classification and context. A
// failing fallback is reported as ErrFallbackFailed.
//
// # Conversation State
//
// Each registry owns one state map. Handlers receive a snapshot in
// Context.ConversationState and return changes in Result.UpdatedState, which
// is shallow-merged only after a successful call.
//
// # Packs
//
// Handlers that belong together register as a Pack. A pack either registers
// completely or not at all.
package handler
