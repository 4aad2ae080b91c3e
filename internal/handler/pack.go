// ABOUTME: Handler packs group intent handlers that ship and register together.
// ABOUTME: Packs register atomically and refuse to shadow existing handlers.

package handler

import "fmt"

// PackHandler binds one intent name to its handler inside a pack.
type PackHandler struct {
	Intent string
	Func   Func
}

// Pack is a named set of handlers, such as the built-in AR interaction pack.
type Pack struct {
	ID       string
	Handlers []PackHandler
}

// RegisterPack installs every handler in pack. Nothing is installed if any
// intent already has a handler (ErrHandlerCollision) or an entry is invalid.
func (r *Registry) RegisterPack(pack *Pack) error {
	if pack == nil || pack.ID == "" {
		return fmt.Errorf("%w: pack ID is required", ErrInvalidHandler)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(pack.Handlers))
	for _, h := range pack.Handlers {
		if h.Intent == "" || h.Func == nil {
			return fmt.Errorf("%w: pack %q has an empty entry", ErrInvalidHandler, pack.ID)
		}
		if _, dup := seen[h.Intent]; dup {
			return fmt.Errorf("%w: intent %q listed twice in pack %q", ErrHandlerCollision, h.Intent, pack.ID)
		}
		seen[h.Intent] = struct{}{}
		if _, exists := r.handlers[h.Intent]; exists {
			owner := r.packs[h.Intent]
			if owner == "" {
				owner = "direct registration"
			}
			return fmt.Errorf("%w: intent %q already handled by %s", ErrHandlerCollision, h.Intent, owner)
		}
	}

	for _, h := range pack.Handlers {
		r.handlers[h.Intent] = h.Func
		r.packs[h.Intent] = pack.ID
	}

	r.logger.Info("handler pack registered",
		"pack_id", pack.ID,
		"handler_count", len(pack.Handlers),
		"total_handlers", len(r.handlers))
	return nil
}

// PackOf returns the ID of the pack that registered intentName's handler.
func (r *Registry) PackOf(intentName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.packs[intentName]
	return id, ok
}
