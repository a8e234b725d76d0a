package history

import (
	"strings"
	"sync"
	"time"
)

// Role identifies who produced a dialogue turn.
type Role string

const (
	RoleUser    Role = "user"
	RolePersona Role = "persona"
)

// Turn is one utterance in a conversation session.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// History holds the bounded short-term dialogue record for one session.
// It appends user/persona pairs together so the sequence always alternates
// strictly, starting with the user. When the cap is exceeded the oldest
// exchange is evicted first.
type History struct {
	mu           sync.Mutex
	turns        []Turn
	maxExchanges int
}

// New returns a history bounded to maxExchanges user/persona pairs.
func New(maxExchanges int) *History {
	if maxExchanges <= 0 {
		maxExchanges = 20
	}
	return &History{maxExchanges: maxExchanges}
}

// AppendExchange records one completed exchange. Both halves are appended
// together; a failed generation must not call this.
func (h *History) AppendExchange(userText, personaText string) {
	now := time.Now().UTC()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns,
		Turn{Role: RoleUser, Content: userText, At: now},
		Turn{Role: RolePersona, Content: personaText, At: now},
	)
	h.evictLocked()
}

// Seed replaces the history with caller-supplied turns, dropping anything
// that would break strict user/persona alternation. Used to adopt the
// client's conversation history on the stateless chat path.
func (h *History) Seed(turns []Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = h.turns[:0]
	expect := RoleUser
	for _, t := range turns {
		if t.Role != RoleUser && t.Role != RolePersona {
			continue
		}
		if t.Role != expect {
			continue
		}
		h.turns = append(h.turns, t)
		if expect == RoleUser {
			expect = RolePersona
		} else {
			expect = RoleUser
		}
	}
	// A trailing user turn has no reply yet; it belongs to the current
	// request, not to the record of completed exchanges.
	if len(h.turns)%2 == 1 {
		h.turns = h.turns[:len(h.turns)-1]
	}
	h.evictLocked()
}

// Turns returns a copy of the recorded turns, oldest first.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of recorded turns (two per exchange).
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Render formats the history as the prompt's current-conversation block.
func (h *History) Render() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	for _, t := range h.turns {
		if t.Role == RoleUser {
			b.WriteString("Human: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *History) evictLocked() {
	max := h.maxExchanges * 2
	if len(h.turns) > max {
		h.turns = append(h.turns[:0], h.turns[len(h.turns)-max:]...)
	}
}
