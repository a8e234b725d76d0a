package session

import (
	"context"
	"testing"
	"time"
)

func TestManagerCreateGetEnd(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("dr-laurence-halloran")
	if s.ID == "" {
		t.Fatalf("session ID should not be empty")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PersonaID != "dr-laurence-halloran" || got.Status != StatusActive {
		t.Fatalf("unexpected session state: %+v", got)
	}

	ended, err := m.End(s.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
}

func TestSetPersonaReportsSwitch(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("dr-laurence-halloran")

	changed, err := m.SetPersona(s.ID, "dr-laurence-halloran")
	if err != nil {
		t.Fatalf("SetPersona() error = %v", err)
	}
	if changed {
		t.Fatalf("SetPersona() with same persona should not report a switch")
	}

	changed, err = m.SetPersona(s.ID, "albert-bythesea-weigall")
	if err != nil {
		t.Fatalf("SetPersona() error = %v", err)
	}
	if !changed {
		t.Fatalf("SetPersona() with new persona should report a switch")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PersonaID != "albert-bythesea-weigall" {
		t.Fatalf("PersonaID = %q", got.PersonaID)
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	s := m.Create("dr-laurence-halloran")

	expired := make(chan string, 1)
	m.SetExpireHook(func(s *Session) { expired <- s.ID })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case id := <-expired:
		if id != s.ID {
			t.Fatalf("expired session = %q, want %q", id, s.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("janitor did not expire the session")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q", got.Status, StatusEnded)
	}
}
