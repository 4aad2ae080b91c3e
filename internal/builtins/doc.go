// Package builtins provides the default AR intent catalog and its handler pack.
//
// # Intents
//
// Intents returns ten definitions in registration order:
//
//   - greeting, farewell, help: conversational basics. farewell ends the
//     conversation.
//   - place_object, remove_object: {object} placement and removal.
//   - rotate_object: {object} and optional {degrees} (default 90).
//   - scale_object: "bigger" (1.5x), "smaller" (0.5x), or an explicit {scale}.
//   - change_color: {color} applied to {object}.
//   - take_photo, reset_scene: scene-wide actions.
//
// # Handlers
//
// Pack returns the builtin:ar handler pack. Handlers emit an Action named
// after their intent plus ActionParams for the external action executor, and
// keep the last object touched in conversation state under "lastObject", so
// "rotate it" works after "place a cube here".
//
// Register both with a session:
//
//	opts := conversation.DefaultOptions()
//	opts.BuiltinIntents = true
//
// # Follow-ups
//
// place_object without an object asks for one and sets the place_object
// follow-up. Fallback answers that follow-up on the next turn by treating the
// utterance as the object name.
package builtins
