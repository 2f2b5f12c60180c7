package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoPersona is returned when no persona is tied to the asset
var ErrNoPersona = errors.New("no persona for asset")

// OpenAIResponder answers chat messages through the chat completions API
type OpenAIResponder struct {
	client   openai.Client
	model    string
	personas Personas
}

// NewOpenAIResponder creates a responder; extra options are passed to the client
func NewOpenAIResponder(apiKey, model string, personas Personas, opts ...option.RequestOption) ports.ChatResponder {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIResponder{
		client:   openai.NewClient(opts...),
		model:    model,
		personas: personas,
	}
}

// Reply sends message with the asset's persona as the system prompt
func (r *OpenAIResponder) Reply(ctx context.Context, asset core.AssetRef, message string) (string, error) {
	persona, ok := r.personas.Lookup(asset)
	if !ok {
		return "", fmt.Errorf("asset %q: %w", asset, ErrNoPersona)
	}

	completion, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(persona),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
