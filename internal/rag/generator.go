package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_model.go -package=mocks research-assistant/internal/rag ChatModel

import (
	"context"
	"fmt"

	"research-assistant/internal/contextutil"
)

// ChatModel is the text-completion backend.
type ChatModel interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Completion is the result of one generation call.
type Completion struct {
	Text string
	Err  error
}

// OK reports whether generation succeeded.
func (c Completion) OK() bool {
	return c.Err == nil
}

// Answer returns the generated text, or a readable failure message.
func (c Completion) Answer() string {
	if c.Err != nil {
		return fmt.Sprintf("Error generating response: %v", c.Err)
	}
	return c.Text
}

// Generator wraps a ChatModel so that failures, including panics, become values.
type Generator struct {
	model ChatModel
}

// NewGenerator creates a Generator.
func NewGenerator(model ChatModel) *Generator {
	return &Generator{model: model}
}

// Generate runs the prompt through the model.
func (g *Generator) Generate(ctx context.Context, prompt string) (out Completion) {
	logger := contextutil.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "chat model panicked", "panic", r)
			out = Completion{Err: fmt.Errorf("chat model panic: %v", r)}
		}
	}()

	text, err := g.model.Chat(ctx, prompt)
	if err != nil {
		logger.WarnContext(ctx, "generation failed", "error", err)
		return Completion{Err: err}
	}
	return Completion{Text: text}
}

// Refine asks the model to improve initial using extra context.
// On failure the initial answer comes back unchanged.
func (g *Generator) Refine(ctx context.Context, question, initial, extra string) string {
	c := g.Generate(ctx, fmt.Sprintf(refineTemplate, question, initial, extra))
	if !c.OK() {
		return initial
	}
	return c.Text
}
