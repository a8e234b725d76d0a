package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sgsarchives/headmasterd/internal/auditlog"
	"github.com/sgsarchives/headmasterd/internal/config"
	"github.com/sgsarchives/headmasterd/internal/history"
	"github.com/sgsarchives/headmasterd/internal/observability"
	"github.com/sgsarchives/headmasterd/internal/persona"
	"github.com/sgsarchives/headmasterd/internal/protocol"
	"github.com/sgsarchives/headmasterd/internal/session"
	"github.com/sgsarchives/headmasterd/internal/turn"
)

// Orchestrator is the turn pipeline as the transport layer sees it.
type Orchestrator interface {
	Chat(ctx context.Context, req turn.Request) (turn.Outcome, error)
	ChatSession(ctx context.Context, sessionID string, req turn.Request) (turn.Outcome, error)
	DropSession(sessionID string)
	Introduce(ctx context.Context, personaID string) (string, error)
}

type Server struct {
	cfg          config.Config
	personas     *persona.Store
	sessions     *session.Manager
	orchestrator Orchestrator
	log          auditlog.Log
	metrics      *observability.Metrics
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, personas *persona.Store, sessions *session.Manager, orchestrator Orchestrator, log auditlog.Log, metrics *observability.Metrics, logger *zap.Logger) *Server {
	return &Server{
		cfg:          cfg,
		personas:     personas,
		sessions:     sessions,
		orchestrator: orchestrator,
		log:          log,
		metrics:      metrics,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/personas", s.handleListPersonas)
	r.Post("/v1/personas/{id}/introduction", s.handleIntroduction)
	r.Post("/v1/chat", s.handleChat)
	r.Post("/v1/chat/session", s.handleCreateSession)
	r.Post("/v1/chat/session/{id}/end", s.handleEndSession)
	r.Get("/v1/chat/session/ws", s.handleSessionWS)
	r.Get("/v1/interactions", s.handleListInteractions)
	r.Get("/v1/perf/turns", s.handlePerfTurns)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"personas": len(s.personas.List()),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"personas": s.personas.List(),
	})
}

func (s *Server) handleIntroduction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	intro, err := s.orchestrator.Introduce(r.Context(), id)
	if err != nil {
		if errors.Is(err, persona.ErrNotFound) {
			respondError(w, http.StatusNotFound, "persona_not_found", err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "introduction_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"headmaster_id": id,
		"introduction":  intro,
	})
}

type chatHistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	HeadmasterID string             `json:"headmaster_id"`
	Message      string             `json:"message"`
	History      []chatHistoryEntry `json:"history,omitempty"`
}

type chatResponse struct {
	HeadmasterID     string `json:"headmaster_id"`
	Reply            string `json:"reply"`
	FactCheck        string `json:"fact_check"`
	PeriodValidation string `json:"period_validation"`
	Citation         string `json:"citation"`
	Degraded         bool   `json:"degraded"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	out, err := s.orchestrator.Chat(r.Context(), turn.Request{
		PersonaID: req.HeadmasterID,
		Message:   req.Message,
		History:   toHistoryTurns(req.History),
	})
	if err != nil {
		status, code := chatErrorStatus(err)
		respondError(w, status, code, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		HeadmasterID:     req.HeadmasterID,
		Reply:            out.Reply,
		FactCheck:        out.Validation.FactCheck,
		PeriodValidation: out.Validation.PeriodValidation,
		Citation:         out.Validation.Citation,
		Degraded:         out.Degraded,
	})
}

type createSessionRequest struct {
	HeadmasterID string `json:"headmaster_id"`
}

type createSessionResponse struct {
	SessionID       string         `json:"session_id"`
	HeadmasterID    string         `json:"headmaster_id"`
	Status          session.Status `json:"status"`
	StartedAt       time.Time      `json:"started_at"`
	InactivityTTLMS int64          `json:"inactivity_ttl_ms"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.HeadmasterID) == "" {
		req.HeadmasterID = persona.DefaultID
	}
	if _, err := s.personas.Get(req.HeadmasterID); err != nil {
		respondError(w, http.StatusNotFound, "persona_not_found", err.Error())
		return
	}

	sess := s.sessions.Create(req.HeadmasterID)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:       sess.ID,
		HeadmasterID:    sess.PersonaID,
		Status:          sess.Status,
		StartedAt:       sess.StartedAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.orchestrator.DropSession(id)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := parseLimit(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_limit", err.Error())
			return
		}
		limit = n
	}
	records, err := s.log.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "interactions_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"interactions": records,
	})
}

func (s *Server) handlePerfTurns(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.SnapshotTurnStages())
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	if _, err := s.sessions.Get(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.sendOutbound(ctx, outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			})
			continue
		}

		msg, ok := parsed.(protocol.UserMessage)
		if !ok {
			continue
		}

		personaID := strings.TrimSpace(msg.HeadmasterID)
		if personaID == "" {
			current, err := s.sessions.Get(sessionID)
			if err != nil {
				s.sendOutbound(ctx, outbound, sessionGoneEvent(sessionID))
				break
			}
			personaID = current.PersonaID
		}

		out, err := s.orchestrator.ChatSession(ctx, sessionID, turn.Request{
			PersonaID: personaID,
			Message:   msg.Content,
		})
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.sendOutbound(ctx, outbound, sessionGoneEvent(sessionID))
				break
			}
			status := "invalid_request"
			if errors.Is(err, persona.ErrNotFound) {
				status = "persona_not_found"
			}
			s.sendOutbound(ctx, outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      status,
				Source:    "orchestrator",
				Retryable: false,
				Detail:    err.Error(),
			})
			continue
		}

		s.sendOutbound(ctx, outbound, protocol.PersonaReply{
			Type:             protocol.TypePersonaReply,
			SessionID:        sessionID,
			TurnID:           uuid.NewString(),
			HeadmasterID:     personaID,
			Content:          out.Reply,
			FactCheck:        out.Validation.FactCheck,
			PeriodValidation: out.Validation.PeriodValidation,
			Citation:         out.Validation.Citation,
			Degraded:         out.Degraded,
		})
	}

	cancel()
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

func (s *Server) sendOutbound(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	}
}

func sessionGoneEvent(sessionID string) protocol.SystemEvent {
	return protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: sessionID,
		Code:      "session_ended",
	}
}

func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, persona.ErrNotFound):
		return http.StatusNotFound, "persona_not_found"
	case errors.Is(err, turn.ErrEmptyMessage), errors.Is(err, turn.ErrEmptyPersona):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "turn_failed"
	}
}

func toHistoryTurns(entries []chatHistoryEntry) []history.Turn {
	if len(entries) == 0 {
		return nil
	}
	turns := make([]history.Turn, 0, len(entries))
	for _, e := range entries {
		role := history.Role(strings.TrimSpace(strings.ToLower(e.Role)))
		switch role {
		case history.RoleUser, history.RolePersona:
		case "assistant", "ai":
			role = history.RolePersona
		case "human":
			role = history.RoleUser
		default:
			continue
		}
		turns = append(turns, history.Turn{Role: role, Content: e.Content})
	}
	return turns
}

func parseLimit(raw string) (int, error) {
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, errors.New("limit must be a positive integer")
		}
		n = n*10 + int(r-'0')
		if n > 500 {
			return 0, errors.New("limit must be 500 or less")
		}
	}
	if n == 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
