// ABOUTME: AR pack turns built-in intents into scene actions for the external executor.
// ABOUTME: Tracks the most recently touched object in conversation state under "lastObject".

package builtins

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/2389/converse/internal/handler"
	"github.com/2389/converse/internal/intent"
)

// PackID identifies the built-in AR handler pack.
const PackID = "builtin:ar"

// StateLastObject is the conversation-state key holding the last object name.
const StateLastObject = "lastObject"

// Actions emitted for the AR action executor. They share the intent names.
const (
	ActionPlaceObject  = IntentPlaceObject
	ActionRemoveObject = IntentRemoveObject
	ActionRotateObject = IntentRotateObject
	ActionScaleObject  = IntentScaleObject
	ActionChangeColor  = IntentChangeColor
	ActionTakePhoto    = IntentTakePhoto
	ActionResetScene   = IntentResetScene
)

const (
	defaultRotation = 90.0
	growFactor      = 1.5
	shrinkFactor    = 0.5
)

// Pack creates the AR pack with a handler for every built-in intent.
func Pack() *handler.Pack {
	return &handler.Pack{
		ID: PackID,
		Handlers: []handler.PackHandler{
			{Intent: IntentGreeting, Func: Greeting},
			{Intent: IntentFarewell, Func: Farewell},
			{Intent: IntentHelp, Func: Help},
			{Intent: IntentPlaceObject, Func: PlaceObject},
			{Intent: IntentRemoveObject, Func: RemoveObject},
			{Intent: IntentRotateObject, Func: RotateObject},
			{Intent: IntentScaleObject, Func: ScaleObject},
			{Intent: IntentChangeColor, Func: ChangeColor},
			{Intent: IntentTakePhoto, Func: TakePhoto},
			{Intent: IntentResetScene, Func: ResetScene},
		},
	}
}

// Greeting welcomes the user.
func Greeting(_ context.Context, _ intent.Result, _ handler.Context) (handler.Result, error) {
	return handler.Result{
		ResponseText: `Hello! I can place, move, and style objects in your scene. Say "help" to hear what I can do.`,
		Success:      true,
	}, nil
}

// Farewell ends the conversation.
func Farewell(_ context.Context, _ intent.Result, _ handler.Context) (handler.Result, error) {
	return handler.Result{
		ResponseText:    "Goodbye! Come back any time.",
		Success:         true,
		EndConversation: true,
	}, nil
}

// Help lists what the pack understands.
func Help(_ context.Context, _ intent.Result, _ handler.Context) (handler.Result, error) {
	return handler.Result{
		ResponseText: "Try: \"place a cube here\", \"rotate it by 45 degrees\", \"make it bigger\", " +
			"\"paint it red\", \"remove the cube\", \"take a photo\", or \"reset the scene\".",
		Success: true,
	}, nil
}

// PlaceObject asks the executor to place the named object. Without an object
// it asks for one and sets a follow-up so the next reply names it.
func PlaceObject(_ context.Context, cr intent.Result, hctx handler.Context) (handler.Result, error) {
	obj, ok := cr.Intent.Entity(EntityObject)
	if !ok || strings.TrimSpace(obj.Value) == "" {
		// A partial match like "a lamp" while the follow-up is pending is the answer itself.
		if cr.Intent.Confidence < 1 {
			if res, answered := answerFollowUp(cr, hctx); answered {
				return res, nil
			}
		}
		return handler.Result{
			ResponseText:   "What would you like me to place?",
			FollowUpIntent: IntentPlaceObject,
		}, nil
	}
	return place(strings.TrimSpace(obj.Value)), nil
}

func place(object string) handler.Result {
	return handler.Result{
		ResponseText: fmt.Sprintf("Placing %s %s.", article(object), object),
		Success:      true,
		Action:       ActionPlaceObject,
		ActionParams: map[string]any{EntityObject: object},
		UpdatedState: map[string]any{StateLastObject: object},
	}
}

// RemoveObject removes the named object, or the last one touched.
func RemoveObject(_ context.Context, cr intent.Result, hctx handler.Context) (handler.Result, error) {
	object, ok := targetObject(cr, hctx)
	if !ok {
		return handler.Result{ResponseText: "Which object should I remove?"}, nil
	}
	return handler.Result{
		ResponseText: fmt.Sprintf("Removing the %s.", object),
		Success:      true,
		Action:       ActionRemoveObject,
		ActionParams: map[string]any{EntityObject: object},
		UpdatedState: map[string]any{StateLastObject: ""},
	}, nil
}

// RotateObject rotates an object by the given degrees, 90 when unspecified.
func RotateObject(_ context.Context, cr intent.Result, hctx handler.Context) (handler.Result, error) {
	object, ok := targetObject(cr, hctx)
	if !ok {
		return handler.Result{ResponseText: "Which object should I rotate?"}, nil
	}

	degrees := defaultRotation
	if e, found := cr.Intent.Entity(EntityDegrees); found {
		v, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64)
		if err != nil {
			return handler.Result{ResponseText: fmt.Sprintf("I couldn't read %q as an angle.", e.Value)}, nil
		}
		degrees = v
	}

	return handler.Result{
		ResponseText: fmt.Sprintf("Rotating the %s by %s degrees.", object, formatNumber(degrees)),
		Success:      true,
		Action:       ActionRotateObject,
		ActionParams: map[string]any{EntityObject: object, EntityDegrees: degrees},
		UpdatedState: map[string]any{StateLastObject: object},
	}, nil
}

// ScaleObject resizes an object. "bigger" and "smaller" map to fixed factors;
// an explicit {scale} entity wins.
func ScaleObject(_ context.Context, cr intent.Result, hctx handler.Context) (handler.Result, error) {
	object, ok := targetObject(cr, hctx)
	if !ok {
		return handler.Result{ResponseText: "Which object should I resize?"}, nil
	}

	factor := growFactor
	if strings.Contains(cr.Query, "smaller") {
		factor = shrinkFactor
	}
	if e, found := cr.Intent.Entity(EntityScale); found {
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(e.Value), "x"), 64)
		if err != nil || v <= 0 {
			return handler.Result{ResponseText: fmt.Sprintf("I couldn't read %q as a scale factor.", e.Value)}, nil
		}
		factor = v
	}

	return handler.Result{
		ResponseText: fmt.Sprintf("Scaling the %s by %sx.", object, formatNumber(factor)),
		Success:      true,
		Action:       ActionScaleObject,
		ActionParams: map[string]any{EntityObject: object, EntityScale: factor},
		UpdatedState: map[string]any{StateLastObject: object},
	}, nil
}

// ChangeColor recolors an object.
func ChangeColor(_ context.Context, cr intent.Result, hctx handler.Context) (handler.Result, error) {
	color, found := cr.Intent.Entity(EntityColor)
	if !found || strings.TrimSpace(color.Value) == "" {
		return handler.Result{ResponseText: "Which color would you like?"}, nil
	}
	object, ok := targetObject(cr, hctx)
	if !ok {
		return handler.Result{ResponseText: "Which object should I paint?"}, nil
	}
	c := strings.TrimSpace(color.Value)

	return handler.Result{
		ResponseText: fmt.Sprintf("Painting the %s %s.", object, c),
		Success:      true,
		Action:       ActionChangeColor,
		ActionParams: map[string]any{EntityObject: object, EntityColor: c},
		UpdatedState: map[string]any{StateLastObject: object},
	}, nil
}

// TakePhoto captures the current view.
func TakePhoto(_ context.Context, _ intent.Result, _ handler.Context) (handler.Result, error) {
	return handler.Result{
		ResponseText: "Say cheese!",
		Success:      true,
		Action:       ActionTakePhoto,
	}, nil
}

// ResetScene clears every placed object.
func ResetScene(_ context.Context, _ intent.Result, _ handler.Context) (handler.Result, error) {
	return handler.Result{
		ResponseText: "Scene cleared.",
		Success:      true,
		Action:       ActionResetScene,
		UpdatedState: map[string]any{StateLastObject: ""},
	}, nil
}

// Fallback resolves a pending place_object follow-up by treating the whole
// utterance as the object name ("a lamp" after "What would you like me to
// place?"). Anything else gets the default fallback.
func Fallback(ctx context.Context, cr intent.Result, hctx handler.Context) (handler.Result, error) {
	if res, answered := answerFollowUp(cr, hctx); answered {
		return res, nil
	}
	return handler.DefaultFallback(ctx, cr, hctx)
}

func answerFollowUp(cr intent.Result, hctx handler.Context) (handler.Result, bool) {
	if hctx.PendingFollowUp() != IntentPlaceObject {
		return handler.Result{}, false
	}
	object := trimArticle(cr.Query)
	if object == "" {
		return handler.Result{}, false
	}
	return place(object), true
}

// targetObject picks the object entity, falling back to the last object touched.
func targetObject(cr intent.Result, hctx handler.Context) (string, bool) {
	if e, ok := cr.Intent.Entity(EntityObject); ok {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v, true
		}
	}
	if last, ok := hctx.ConversationState[StateLastObject].(string); ok && last != "" {
		return last, true
	}
	return "", false
}

func trimArticle(s string) string {
	s = strings.TrimSpace(s)
	for _, a := range []string{"a ", "an ", "the ", "some "} {
		if rest, ok := strings.CutPrefix(s, a); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

func article(noun string) string {
	if noun != "" && strings.ContainsRune("aeiou", rune(noun[0])) {
		return "an"
	}
	return "a"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
