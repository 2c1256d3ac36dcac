// Package script turns a topic into the narration script for a facts short.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"

	"factreel/internal/logging"
	"factreel/internal/services"
	"factreel/internal/services/llm"
	"factreel/internal/timeline"
)

// Completer is the text-completion service used to write scripts.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// jsonCompleter is implemented by services that can force a JSON object reply.
type jsonCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Payload is the object the text service must return.
type Payload struct {
	Script string `json:"script" jsonschema:"required,description=Narration text for a facts short of under 50 seconds (about 140 words)"`
}

const instructions = `You write scripts for a YouTube Shorts channel about facts.
Each short runs under 50 seconds, roughly 140 words, and is engaging and original.
When asked for a kind of facts, write the best short script for it.

For example, a request for "Weird facts" could produce:

Weird facts you don't know:
- Bananas are berries, but strawberries aren't.
- A single cloud can weigh over a million pounds.
- There's a species of jellyfish that is biologically immortal.
- Octopuses have three hearts and blue blood.

Keep it brief, interesting and unique. Output only a JSON object matching this schema:
`

// Generator writes narration scripts.
type Generator struct {
	completer Completer
	logger    *slog.Logger
	system    string
}

// NewGenerator constructs a script generator.
func NewGenerator(completer Completer, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logging.NewComponentLogger(logger, "script"),
		system:    instructions + SchemaHint(),
	}
}

// SchemaHint returns the JSON schema describing Payload, reflected the same
// way for every request.
func SchemaHint() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Payload{})
	schema.Version = ""
	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return `{"type":"object","properties":{"script":{"type":"string"}},"required":["script"]}`
	}
	return string(encoded)
}

// Generate asks the text service for a script about topic.
func (g *Generator) Generate(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", services.Wrap(services.ErrValidation, "script", "generate", "topic required", nil)
	}
	if g == nil || g.completer == nil {
		return "", services.Wrap(services.ErrConfiguration, "script", "generate", "text service not configured", nil)
	}

	userPrompt := "Topic: " + topic
	var (
		raw string
		err error
	)
	if jc, ok := g.completer.(jsonCompleter); ok {
		raw, err = jc.CompleteJSON(ctx, g.system, userPrompt)
	} else {
		raw, err = g.completer.Complete(ctx, g.system, userPrompt)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("script: %w", ctxErr)
		}
		return "", services.Wrap(services.ErrServiceFailure, "script", "complete", "", err)
	}

	var payload Payload
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		return "", fmt.Errorf("script: %w: %w", timeline.ErrMalformedResponse, err)
	}
	text := strings.TrimSpace(payload.Script)
	if text == "" {
		return "", fmt.Errorf("script: %w: empty script", timeline.ErrMalformedResponse)
	}

	logging.WithContext(ctx, g.logger).Info("script generated",
		logging.String("topic", topic),
		logging.Int("words", len(strings.Fields(text))),
	)
	return text, nil
}
