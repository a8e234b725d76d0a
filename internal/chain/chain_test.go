package chain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sgsarchives/headmasterd/internal/archive"
	"github.com/sgsarchives/headmasterd/internal/llm"
	"github.com/sgsarchives/headmasterd/internal/persona"
)

type capturingClient struct {
	lastPrompt string
	reply      string
	err        error
}

func (c *capturingClient) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	c.lastPrompt = req.Prompt
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

type fixedRetriever struct {
	passages []archive.Passage
	err      error
}

func (r *fixedRetriever) Search(_ context.Context, _ string, k int) ([]archive.Passage, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.passages) > k {
		return r.passages[:k], nil
	}
	return r.passages, nil
}

func (r *fixedRetriever) Close() error { return nil }

func testPersona() persona.Persona {
	return persona.Persona{
		ID:            "dr-laurence-halloran",
		Name:          "Dr. Laurence Halloran",
		Tenure:        "1825",
		Personality:   []string{"ambitious", "charismatic"},
		SpeakingStyle: []string{"formal Georgian English"},
	}
}

func TestConverseRendersBothMemoryBlocks(t *testing.T) {
	client := &capturingClient{reply: "Laus Deo, young friend."}
	retriever := &fixedRetriever{passages: []archive.Passage{
		{Content: "the school adopted the motto Laus Deo", Title: "Charter", Date: "1857", Score: 0.9},
		{Content: "enrols grew under Weigall", Title: "Minutes", Date: "1867", Score: 0.5},
	}}
	c := New(testPersona(), client, retriever, Params{Temperature: 0.7, MaxTokens: 300, RetrievalK: 4, MaxExchanges: 10})

	c.History().AppendExchange("Good morning", "Good morning to you.")

	reply, err := c.Converse(context.Background(), "What is the school motto?")
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if reply != "Laus Deo, young friend." {
		t.Fatalf("reply = %q", reply)
	}

	prompt := client.lastPrompt
	if !strings.Contains(prompt, "Dr. Laurence Halloran (1825)") {
		t.Fatalf("prompt missing persona header:\n%s", prompt)
	}
	histIdx := strings.Index(prompt, "Current conversation:")
	ctxIdx := strings.Index(prompt, "Historical context from the archives:")
	if histIdx < 0 || ctxIdx < 0 {
		t.Fatalf("prompt missing a memory block:\n%s", prompt)
	}
	histBlock := prompt[histIdx:]
	ctxBlock := prompt[ctxIdx:histIdx]
	if !strings.Contains(histBlock, "Human: Good morning") {
		t.Fatalf("conversation block missing prior exchange:\n%s", histBlock)
	}
	if !strings.Contains(ctxBlock, "motto Laus Deo") {
		t.Fatalf("historical context block missing passage:\n%s", ctxBlock)
	}
	if strings.Contains(ctxBlock, "Human: Good morning") {
		t.Fatalf("history leaked into the historical-context block:\n%s", ctxBlock)
	}
	if !strings.HasSuffix(prompt, "Human: What is the school motto?\nAssistant:") {
		t.Fatalf("prompt tail malformed:\n%s", prompt)
	}
}

func TestConverseAppendsExchangeOnce(t *testing.T) {
	client := &capturingClient{reply: "A fine question."}
	c := New(testPersona(), client, &fixedRetriever{}, Params{MaxExchanges: 10})

	if _, err := c.Converse(context.Background(), "first question"); err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if got := c.History().Len(); got != 2 {
		t.Fatalf("history len = %d, want 2", got)
	}

	if _, err := c.Converse(context.Background(), "second question"); err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if got := c.History().Len(); got != 4 {
		t.Fatalf("history len = %d, want 4", got)
	}
}

func TestConverseEmptyRetrievalYieldsEmptyBlock(t *testing.T) {
	client := &capturingClient{reply: "ok"}
	c := New(testPersona(), client, &fixedRetriever{}, Params{MaxExchanges: 10})

	if _, err := c.Converse(context.Background(), "anything"); err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	want := "Historical context from the archives:\n\n"
	if !strings.Contains(client.lastPrompt, want) {
		t.Fatalf("empty retrieval should leave an empty block:\n%s", client.lastPrompt)
	}
}

func TestConverseGenerationFailureLeavesHistoryUntouched(t *testing.T) {
	client := &capturingClient{err: errors.New("provider timeout")}
	c := New(testPersona(), client, &fixedRetriever{}, Params{MaxExchanges: 10})

	if _, err := c.Converse(context.Background(), "hello"); err == nil {
		t.Fatalf("Converse() expected error")
	}
	if got := c.History().Len(); got != 0 {
		t.Fatalf("history len after failure = %d, want 0", got)
	}
}

func TestConverseRetrievalFailureSurfaces(t *testing.T) {
	client := &capturingClient{reply: "unused"}
	c := New(testPersona(), client, &fixedRetriever{err: errors.New("store offline")}, Params{MaxExchanges: 10})

	if _, err := c.Converse(context.Background(), "hello"); err == nil {
		t.Fatalf("Converse() expected retrieval error")
	}
	if client.lastPrompt != "" {
		t.Fatalf("model should not be called when memory composition fails")
	}
}

func TestRenderIntroduction(t *testing.T) {
	got := RenderIntroduction(testPersona())
	if !strings.Contains(got, "Dr. Laurence Halloran (1825)") {
		t.Fatalf("introduction prompt missing persona: %s", got)
	}
	if !strings.Contains(got, "Introduce yourself") {
		t.Fatalf("introduction prompt missing instruction: %s", got)
	}
}
