package turn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sgsarchives/headmasterd/internal/archive"
	"github.com/sgsarchives/headmasterd/internal/auditlog"
	"github.com/sgsarchives/headmasterd/internal/chain"
	"github.com/sgsarchives/headmasterd/internal/history"
	"github.com/sgsarchives/headmasterd/internal/llm"
	"github.com/sgsarchives/headmasterd/internal/observability"
	"github.com/sgsarchives/headmasterd/internal/persona"
	"github.com/sgsarchives/headmasterd/internal/policy"
	"github.com/sgsarchives/headmasterd/internal/reliability"
	"github.com/sgsarchives/headmasterd/internal/session"
	"github.com/sgsarchives/headmasterd/internal/validate"
)

// ApologyReply is the fixed, persona-agnostic text returned when the chain
// cannot produce a reply. The user is never shown a raw internal error.
const ApologyReply = "My apologies, I am unable to offer a reply just now. Please ask me again in a moment."

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrEmptyPersona = errors.New("persona id is required")
)

// Request is one inbound conversation turn.
type Request struct {
	PersonaID string
	Message   string
	// History seeds the chain on the stateless path. Ignored when the turn
	// belongs to a session, whose chain already owns its history.
	History []history.Turn
}

// Outcome is the result of one turn. Degraded marks the apology path; a
// degraded outcome carries empty validator fields.
type Outcome struct {
	Reply      string
	Degraded   bool
	Validation validate.Results
}

// Config fixes the orchestrator's per-turn knobs.
type Config struct {
	ChainParams      chain.Params
	ValidatorTimeout time.Duration
	AuditTimeout     time.Duration
}

// Orchestrator sequences one turn: input validation, persona-conditioned
// generation, concurrent validation, and best-effort persistence. Turns
// within one session are sequential; the orchestrator itself is safe for
// concurrent use across sessions. All collaborators passed to
// NewOrchestrator, metrics included, must be non-nil.
type Orchestrator struct {
	personas   *persona.Store
	client     llm.Client
	retriever  archive.Retriever
	validators *validate.Set
	log        auditlog.Log
	sessions   *session.Manager
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        Config

	mu     sync.Mutex
	chains map[string]*chain.Chain
}

func NewOrchestrator(
	personas *persona.Store,
	client llm.Client,
	retriever archive.Retriever,
	validators *validate.Set,
	log auditlog.Log,
	sessions *session.Manager,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg Config,
) *Orchestrator {
	if cfg.ValidatorTimeout <= 0 {
		cfg.ValidatorTimeout = 20 * time.Second
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = 2 * time.Second
	}
	if cfg.ChainParams.ObserveStage == nil {
		cfg.ChainParams.ObserveStage = metrics.ObserveTurnStage
	}
	return &Orchestrator{
		personas:   personas,
		client:     client,
		retriever:  retriever,
		validators: validators,
		log:        log,
		sessions:   sessions,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Chat runs one stateless turn. The caller supplies the prior conversation;
// a fresh chain is seeded from it, mirroring a client that resends its
// history on every request.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (Outcome, error) {
	p, err := o.validateRequest(req)
	if err != nil {
		return Outcome{}, err
	}
	c := chain.New(p, o.client, o.retriever, o.cfg.ChainParams)
	if len(req.History) > 0 {
		c.History().Seed(req.History)
	}
	return o.runTurn(ctx, c, req.Message), nil
}

// ChatSession runs one turn inside a session, reusing that session's chain.
// Switching personas mid-session starts a fresh, independent history.
func (o *Orchestrator) ChatSession(ctx context.Context, sessionID string, req Request) (Outcome, error) {
	p, err := o.validateRequest(req)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := o.sessions.Get(sessionID); err != nil {
		return Outcome{}, err
	}
	switched, err := o.sessions.SetPersona(sessionID, p.ID)
	if err != nil {
		return Outcome{}, err
	}

	o.mu.Lock()
	if o.chains == nil {
		o.chains = make(map[string]*chain.Chain)
	}
	c, ok := o.chains[sessionID]
	if !ok || switched || c.Persona().ID != p.ID {
		c = chain.New(p, o.client, o.retriever, o.cfg.ChainParams)
		o.chains[sessionID] = c
	}
	o.mu.Unlock()

	return o.runTurn(ctx, c, req.Message), nil
}

// DropSession discards a session's chain and history. Wired to session end
// and expiry.
func (o *Orchestrator) DropSession(sessionID string) {
	o.mu.Lock()
	delete(o.chains, sessionID)
	o.mu.Unlock()
}

// Introduce renders a persona's greeting. Upstream failure surfaces as an
// error; the UI substitutes a generic greeting, that fallback is not the
// pipeline's concern.
func (o *Orchestrator) Introduce(ctx context.Context, personaID string) (string, error) {
	p, err := o.personas.Get(personaID)
	if err != nil {
		return "", err
	}
	text, err := o.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      chain.RenderIntroduction(p),
		Temperature: o.cfg.ChainParams.Temperature,
		MaxTokens:   o.cfg.ChainParams.MaxTokens,
	})
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("llm", reliability.ClassifyProviderError(err)).Inc()
		return "", fmt.Errorf("introduction for %s: %w", personaID, err)
	}
	return text, nil
}

func (o *Orchestrator) validateRequest(req Request) (persona.Persona, error) {
	if req.PersonaID == "" {
		return persona.Persona{}, ErrEmptyPersona
	}
	if req.Message == "" {
		return persona.Persona{}, ErrEmptyMessage
	}
	return o.personas.Get(req.PersonaID)
}

// runTurn drives the per-turn state machine after input validation:
// generating-reply, then the concurrent validating-reply join, then
// fire-and-forget persisting. Generation failure short-circuits to the
// apology without running validators.
func (o *Orchestrator) runTurn(ctx context.Context, c *chain.Chain, message string) Outcome {
	start := time.Now()
	p := c.Persona()

	reply, err := c.Converse(ctx, message)
	o.metrics.ObserveTurnStage("reply_generated", time.Since(start))
	if err != nil {
		code := reliability.ClassifyProviderError(err)
		o.metrics.ProviderErrors.WithLabelValues("llm", code).Inc()
		o.metrics.TurnsTotal.WithLabelValues("generation_failed").Inc()
		redacted, _ := policy.RedactForLog(message)
		o.logger.Warn("reply generation failed",
			zap.String("persona_id", p.ID),
			zap.String("code", code),
			zap.String("message", redacted),
			zap.Error(err),
		)
		o.appendBestEffort(auditlog.TurnRecord{
			HeadmasterID:      p.ID,
			UserQuery:         message,
			AssistantResponse: ApologyReply,
		})
		return Outcome{Reply: ApologyReply, Degraded: true}
	}

	vstart := time.Now()
	vctx, cancel := context.WithTimeout(ctx, o.cfg.ValidatorTimeout)
	results := o.validators.Run(vctx, reply, p)
	cancel()
	o.metrics.ObserveTurnStage("validators_done", time.Since(vstart))
	o.countValidatorResults(results)

	o.appendBestEffort(auditlog.TurnRecord{
		HeadmasterID:      p.ID,
		UserQuery:         message,
		AssistantResponse: reply,
		FactCheck:         results.FactCheck,
		PeriodValidation:  results.PeriodValidation,
		Citation:          results.Citation,
	})

	o.metrics.TurnsTotal.WithLabelValues("ok").Inc()
	o.metrics.ObserveTurnStage("turn_total", time.Since(start))
	return Outcome{Reply: reply, Validation: results}
}

// appendBestEffort persists asynchronously so audit logging never adds
// user-perceived latency. Failures are logged and counted for operational
// follow-up; they never alter the reply already computed.
func (o *Orchestrator) appendBestEffort(record auditlog.TurnRecord) {
	if o.log == nil {
		return
	}
	go func(r auditlog.TurnRecord) {
		start := time.Now()
		saveCtx, cancel := context.WithTimeout(context.Background(), o.cfg.AuditTimeout)
		defer cancel()
		err := o.log.Append(saveCtx, r)
		o.metrics.ObserveTurnStage("audit_append", time.Since(start))
		if err != nil {
			o.metrics.AuditAppendFailures.Inc()
			o.logger.Warn("interaction log append failed",
				zap.String("persona_id", r.HeadmasterID),
				zap.Error(err),
			)
		}
	}(record)
}

func (o *Orchestrator) countValidatorResults(results validate.Results) {
	o.metrics.ValidatorResults.WithLabelValues("fact_check", validate.StatusOf(results.FactCheck)).Inc()
	o.metrics.ValidatorResults.WithLabelValues("period_validation", validate.StatusOf(results.PeriodValidation)).Inc()
	o.metrics.ValidatorResults.WithLabelValues("citation", validate.StatusOf(results.Citation)).Inc()
}
