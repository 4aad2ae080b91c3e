// ABOUTME: Default intent catalog for common AR scene requests.
// ABOUTME: Order matters: earlier intents win ties in the matcher.

package builtins

import "github.com/2389/converse/internal/intent"

// Built-in intent names.
const (
	IntentGreeting     = "greeting"
	IntentFarewell     = "farewell"
	IntentHelp         = "help"
	IntentPlaceObject  = "place_object"
	IntentRemoveObject = "remove_object"
	IntentRotateObject = "rotate_object"
	IntentScaleObject  = "scale_object"
	IntentChangeColor  = "change_color"
	IntentTakePhoto    = "take_photo"
	IntentResetScene   = "reset_scene"
)

// Entity types referenced by built-in examples.
const (
	EntityObject  = "object"
	EntityColor   = "color"
	EntityDegrees = "degrees"
	EntityScale   = "scale"
)

// Intents returns the built-in definitions in registration order. Each call
// returns fresh slices.
func Intents() []intent.Definition {
	return []intent.Definition{
		{
			Name:     IntentGreeting,
			Examples: []string{"hello", "hi", "hey", "hello there", "good morning", "good evening"},
		},
		{
			Name:     IntentFarewell,
			Examples: []string{"goodbye", "bye", "see you later", "that's all", "i'm done", "end the conversation"},
		},
		{
			Name:     IntentHelp,
			Examples: []string{"help", "what can you do", "how does this work", "show me the commands"},
		},
		{
			Name: IntentPlaceObject,
			Examples: []string{
				"place a {object} here",
				"place an {object} here",
				"put a {object} here",
				"put an {object} here",
				"place a {object}",
				"place an {object}",
				"add a {object}",
				"add an {object}",
				"show me a {object}",
				"show me an {object}",
			},
			EntityTypes: []string{EntityObject},
		},
		{
			Name: IntentRemoveObject,
			Examples: []string{
				"remove the {object}",
				"delete the {object}",
				"get rid of the {object}",
				"remove it",
				"delete it",
			},
			EntityTypes: []string{EntityObject},
		},
		{
			Name: IntentRotateObject,
			Examples: []string{
				"rotate the {object} by {degrees} degrees",
				"rotate it by {degrees} degrees",
				"rotate the {object}",
				"turn the {object} around",
				"rotate it",
			},
			EntityTypes: []string{EntityObject, EntityDegrees},
		},
		{
			Name: IntentScaleObject,
			Examples: []string{
				"make the {object} bigger",
				"make the {object} smaller",
				"make it bigger",
				"make it smaller",
				"scale the {object} by {scale}",
				"scale it by {scale}",
			},
			EntityTypes: []string{EntityObject, EntityScale},
		},
		{
			Name: IntentChangeColor,
			Examples: []string{
				"change the color of the {object} to {color}",
				"paint the {object} {color}",
				"change the {object} to {color}",
				"paint it {color}",
				"color it {color}",
			},
			EntityTypes: []string{EntityObject, EntityColor},
		},
		{
			Name:     IntentTakePhoto,
			Examples: []string{"take a photo", "take a picture", "take a screenshot", "snap a photo", "capture this"},
		},
		{
			Name:     IntentResetScene,
			Examples: []string{"reset the scene", "clear the scene", "clear everything", "start over"},
		},
	}
}
