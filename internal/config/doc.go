// Package config handles configuration loading for converse.
//
// # Overview
//
// Configuration is read from a YAML or TOML file, chosen by extension, with
// environment variable expansion. Duration strings are parsed into
// time.Duration after decoding, and keys absent from the file keep their
// Default values.
//
// # Loading Configuration
//
//	cfg, err := config.Load("converse.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr, err := conversation.New(cfg.ConversationOptions(), logger)
//
// # Environment Variables
//
// Use ${VAR_NAME} syntax to reference environment variables. Unset variables
// expand to the empty string:
//
//	logging:
//	  level: "${CONVERSE_LOG_LEVEL}"
//
// # Configuration Sections
//
// Conversation:
//
//	conversation:
//	  confidence_threshold: 0.5    # minimum match confidence, 0..1
//	  max_alternative_intents: 1
//	  enable_sentiment: false
//	  builtin_intents: true        # load the AR intent pack
//	  max_history_size: 50
//	  auto_end_conversation: true
//	  inactivity_timeout: "5m"
//	  initial_state: {}            # conversation state after every start
//	  additional_context: {}       # values handed to every handler
//
// Intents, inline or from separate catalog files resolved relative to the
// config file:
//
//	intents:
//	  - name: place_object
//	    examples: ["place a {object} here"]
//	    entity_types: [object]
//	intent_files:
//	  - intents/scene.toml
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load validates the result and returns the first failure: thresholds out of
// range, negative sizes or durations, unnamed intents, and unknown logging
// values.
package config
