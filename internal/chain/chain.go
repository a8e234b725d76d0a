package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/sgsarchives/headmasterd/internal/archive"
	"github.com/sgsarchives/headmasterd/internal/history"
	"github.com/sgsarchives/headmasterd/internal/llm"
	"github.com/sgsarchives/headmasterd/internal/persona"
)

// Params fixes the generation knobs for a chain.
type Params struct {
	Temperature  float64
	MaxTokens    int
	RetrievalK   int
	MaxExchanges int

	// ObserveStage, when set, receives per-stage timings.
	ObserveStage func(stage string, d time.Duration)
}

// Chain is one persona's conversation chain for one session. It owns the
// session's short-term history; turns within a session must be sequential
// (single writer), which the orchestrator guarantees.
type Chain struct {
	persona   persona.Persona
	client    llm.Client
	retriever archive.Retriever
	history   *history.History
	params    Params
}

func New(p persona.Persona, client llm.Client, retriever archive.Retriever, params Params) *Chain {
	if params.RetrievalK <= 0 {
		params.RetrievalK = 4
	}
	return &Chain{
		persona:   p,
		client:    client,
		retriever: retriever,
		history:   history.New(params.MaxExchanges),
		params:    params,
	}
}

// Persona returns the immutable persona this chain speaks for.
func (c *Chain) Persona() persona.Persona { return c.persona }

// History exposes the session history for seeding and inspection.
func (c *Chain) History() *history.History { return c.history }

// Converse runs one turn: compose the two memory blocks, render the prompt,
// call the model, and record the exchange. On any failure the error is
// surfaced and the history is left untouched; the user-visible fallback is
// the caller's concern.
func (c *Chain) Converse(ctx context.Context, input string) (string, error) {
	start := time.Now()
	vars, err := loadMemory(ctx, c.history, c.retriever, input, c.params.RetrievalK)
	if err != nil {
		return "", err
	}
	if c.params.ObserveStage != nil {
		c.params.ObserveStage("context_ready", time.Since(start))
	}

	prompt := renderPrompt(c.persona, vars, input)
	reply, err := c.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		Temperature: c.params.Temperature,
		MaxTokens:   c.params.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	c.history.AppendExchange(input, reply)
	return reply, nil
}
