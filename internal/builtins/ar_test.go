// ABOUTME: Tests for the built-in AR intents and handler pack.
// ABOUTME: Classifies real utterances against the catalog and runs them through a registry.

package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/converse/internal/handler"
	"github.com/2389/converse/internal/intent"
)

func newTestRegistry(t *testing.T) (*intent.Catalog, *handler.Registry) {
	t.Helper()
	catalog, err := intent.NewCatalog(Intents()...)
	require.NoError(t, err)

	reg := handler.NewRegistry(nil, nil)
	require.NoError(t, reg.RegisterPack(Pack()))
	reg.SetFallbackHandler(Fallback)
	return catalog, reg
}

func turn(t *testing.T, catalog *intent.Catalog, reg *handler.Registry, text string, values map[string]any) (intent.Result, handler.Result) {
	t.Helper()
	cr := intent.Classify(text, catalog, intent.DefaultMatchOptions())
	res, err := reg.Handle(t.Context(), cr, values)
	require.NoError(t, err)
	return cr, res
}

func TestIntents_Classification(t *testing.T) {
	catalog, err := intent.NewCatalog(Intents()...)
	require.NoError(t, err)

	tests := []struct {
		text     string
		intent   string
		entities map[string]string
	}{
		{"Hello", IntentGreeting, nil},
		{"goodbye", IntentFarewell, nil},
		{"what can you do", IntentHelp, nil},
		{"place a cube here", IntentPlaceObject, map[string]string{EntityObject: "cube"}},
		{"place an apple here", IntentPlaceObject, map[string]string{EntityObject: "apple"}},
		{"add an umbrella", IntentPlaceObject, map[string]string{EntityObject: "umbrella"}},
		{"remove the sphere", IntentRemoveObject, map[string]string{EntityObject: "sphere"}},
		{"rotate the chair by 45 degrees", IntentRotateObject, map[string]string{EntityObject: "chair", EntityDegrees: "45"}},
		{"make it smaller", IntentScaleObject, nil},
		{"paint the big cube red", IntentChangeColor, map[string]string{EntityObject: "big cube", EntityColor: "red"}},
		{"take a photo", IntentTakePhoto, nil},
		{"reset the scene", IntentResetScene, nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cr := intent.Classify(tt.text, catalog, intent.DefaultMatchOptions())
			assert.Equal(t, tt.intent, cr.Intent.Name)
			assert.InDelta(t, 1.0, cr.Intent.Confidence, 1e-9)
			for typ, want := range tt.entities {
				e, ok := cr.Intent.Entity(typ)
				require.True(t, ok, "missing entity %s", typ)
				assert.Equal(t, want, e.Value)
			}
		})
	}
}

func TestIntents_FreshSlices(t *testing.T) {
	a := Intents()
	a[0].Examples[0] = "mutated"
	b := Intents()
	assert.Equal(t, "hello", b[0].Examples[0])
}

func TestPack_CoversEveryIntent(t *testing.T) {
	pack := Pack()
	assert.Equal(t, PackID, pack.ID)

	handled := make(map[string]bool)
	for _, h := range pack.Handlers {
		handled[h.Intent] = true
	}
	for _, def := range Intents() {
		assert.True(t, handled[def.Name], "no handler for %s", def.Name)
	}
}

func TestPlaceThenRotate_UsesLastObject(t *testing.T) {
	catalog, reg := newTestRegistry(t)

	_, res := turn(t, catalog, reg, "place a cube here", nil)
	assert.True(t, res.Success)
	assert.Equal(t, ActionPlaceObject, res.Action)
	assert.Equal(t, map[string]any{EntityObject: "cube"}, res.ActionParams)
	assert.Equal(t, "Placing a cube.", res.ResponseText)
	assert.Equal(t, "cube", reg.State()[StateLastObject])

	_, res = turn(t, catalog, reg, "rotate it by 45 degrees", nil)
	assert.True(t, res.Success)
	assert.Equal(t, ActionRotateObject, res.Action)
	assert.Equal(t, "cube", res.ActionParams[EntityObject])
	assert.InDelta(t, 45.0, res.ActionParams[EntityDegrees], 1e-9)
}

func TestPlaceObject_AnArticle(t *testing.T) {
	catalog, reg := newTestRegistry(t)

	cr, res := turn(t, catalog, reg, "place an apple here", nil)
	assert.InDelta(t, 1.0, cr.Intent.Confidence, 1e-9)
	assert.True(t, res.Success)
	assert.Equal(t, ActionPlaceObject, res.Action)
	assert.Equal(t, map[string]any{EntityObject: "apple"}, res.ActionParams)
	assert.Equal(t, "Placing an apple.", res.ResponseText)
	assert.Equal(t, "apple", reg.State()[StateLastObject])
}

func TestRotate_DefaultAngleAndBadAngle(t *testing.T) {
	catalog, reg := newTestRegistry(t)
	turn(t, catalog, reg, "place an apple here", nil)
	require.Equal(t, "apple", reg.State()[StateLastObject])

	_, res := turn(t, catalog, reg, "rotate it", nil)
	require.True(t, res.Success)
	assert.InDelta(t, defaultRotation, res.ActionParams[EntityDegrees], 1e-9)

	_, res = turn(t, catalog, reg, "rotate it by many degrees", nil)
	assert.False(t, res.Success)
	assert.Empty(t, res.Action)
}

func TestScale_Directions(t *testing.T) {
	catalog, reg := newTestRegistry(t)
	turn(t, catalog, reg, "place a box here", nil)

	_, res := turn(t, catalog, reg, "make it bigger", nil)
	assert.InDelta(t, growFactor, res.ActionParams[EntityScale], 1e-9)

	_, res = turn(t, catalog, reg, "make it smaller", nil)
	assert.InDelta(t, shrinkFactor, res.ActionParams[EntityScale], 1e-9)

	_, res = turn(t, catalog, reg, "scale it by 3x", nil)
	assert.InDelta(t, 3.0, res.ActionParams[EntityScale], 1e-9)
}

func TestRemove_WithoutTarget(t *testing.T) {
	catalog, reg := newTestRegistry(t)

	_, res := turn(t, catalog, reg, "remove it", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Which object should I remove?", res.ResponseText)
}

func TestRemove_ClearsLastObject(t *testing.T) {
	catalog, reg := newTestRegistry(t)
	turn(t, catalog, reg, "place a vase here", nil)

	_, res := turn(t, catalog, reg, "remove it", nil)
	assert.True(t, res.Success)
	assert.Equal(t, "vase", res.ActionParams[EntityObject])
	assert.Equal(t, "", reg.State()[StateLastObject])
}

func TestChangeColor(t *testing.T) {
	catalog, reg := newTestRegistry(t)
	turn(t, catalog, reg, "place a lamp here", nil)

	_, res := turn(t, catalog, reg, "paint it blue", nil)
	assert.True(t, res.Success)
	assert.Equal(t, map[string]any{EntityObject: "lamp", EntityColor: "blue"}, res.ActionParams)
}

func TestFarewell_EndsConversation(t *testing.T) {
	catalog, reg := newTestRegistry(t)

	_, res := turn(t, catalog, reg, "bye", nil)
	assert.True(t, res.EndConversation)
}

func TestResetScene(t *testing.T) {
	catalog, reg := newTestRegistry(t)
	turn(t, catalog, reg, "place a cube here", nil)

	_, res := turn(t, catalog, reg, "start over", nil)
	assert.Equal(t, ActionResetScene, res.Action)
	assert.Equal(t, "", reg.State()[StateLastObject])
}

func TestPlaceObject_FollowUp(t *testing.T) {
	catalog, reg := newTestRegistry(t)

	res, err := PlaceObject(t.Context(), intent.Result{Intent: intent.Match{Name: IntentPlaceObject, Confidence: 1}}, handler.Context{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, IntentPlaceObject, res.FollowUpIntent)

	t.Run("fallback answers pending follow-up", func(t *testing.T) {
		cr, res := turn(t, catalog, reg, "lamp", map[string]any{handler.ValuePendingFollowUp: IntentPlaceObject})
		assert.True(t, cr.IsFallback())
		assert.True(t, res.Success)
		assert.Equal(t, "lamp", res.ActionParams[EntityObject])
	})

	t.Run("fallback without follow-up apologizes", func(t *testing.T) {
		cr, res := turn(t, catalog, reg, "lamp", nil)
		assert.True(t, cr.IsFallback())
		assert.False(t, res.Success)
		assert.Equal(t, handler.DefaultFallbackText, res.ResponseText)
	})
}

func TestPlaceObject_PartialMatchAnswersFollowUp(t *testing.T) {
	cr := intent.Result{
		Query:  "a lamp",
		Intent: intent.Match{Name: IntentPlaceObject, Confidence: 0.5},
	}
	hctx := handler.Context{Values: map[string]any{handler.ValuePendingFollowUp: IntentPlaceObject}}

	res, err := PlaceObject(t.Context(), cr, hctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "lamp", res.ActionParams[EntityObject])
}

func TestTrimArticle(t *testing.T) {
	assert.Equal(t, "lamp", trimArticle("a lamp"))
	assert.Equal(t, "orange", trimArticle("an orange"))
	assert.Equal(t, "red chair", trimArticle(" the red chair "))
	assert.Equal(t, "table", trimArticle("table"))
}
