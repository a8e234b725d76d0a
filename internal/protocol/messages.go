package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage  MessageType = "user_message"
	TypePersonaReply MessageType = "persona_reply"
	TypeSystemEvent  MessageType = "system_event"
	TypeErrorEvent   MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage is the only inbound variant: one question for the active
// headmaster. HeadmasterID may differ from the session's current persona,
// which switches the session to a fresh conversation with that headmaster.
type UserMessage struct {
	Type         MessageType `json:"type"`
	SessionID    string      `json:"session_id"`
	HeadmasterID string      `json:"headmaster_id,omitempty"`
	Content      string      `json:"content"`
	TSMs         int64       `json:"ts_ms"`
}

// PersonaReply carries one complete in-character answer plus the validator
// verdicts attached to it.
type PersonaReply struct {
	Type             MessageType `json:"type"`
	SessionID        string      `json:"session_id"`
	TurnID           string      `json:"turn_id"`
	HeadmasterID     string      `json:"headmaster_id"`
	Content          string      `json:"content"`
	FactCheck        string      `json:"fact_check"`
	PeriodValidation string      `json:"period_validation"`
	Citation         string      `json:"citation"`
	Degraded         bool        `json:"degraded"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserMessage:
		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Content == "" {
			return nil, errors.New("invalid user_message")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
