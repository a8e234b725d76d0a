package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("persona not found")

// Persona is a fixed historical character profile. Immutable once loaded;
// a turn never mutates it.
type Persona struct {
	ID                  string   `json:"id" yaml:"id"`
	Name                string   `json:"name" yaml:"name"`
	Subtitle            string   `json:"subtitle" yaml:"subtitle"`
	Tenure              string   `json:"tenure" yaml:"tenure"`
	Personality         []string `json:"personality" yaml:"personality"`
	SpeakingStyle       []string `json:"speaking_style" yaml:"speaking_style"`
	CharacterInfluences []string `json:"character_influences" yaml:"character_influences"`
}

// Store is a read-only persona catalog.
type Store struct {
	byID  map[string]Persona
	order []string
}

// NewStore builds a catalog from the given personas, preserving order.
func NewStore(personas []Persona) (*Store, error) {
	s := &Store{byID: make(map[string]Persona, len(personas))}
	for _, p := range personas {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("persona %q has empty id", p.Name)
		}
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", id)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("persona %q has empty name", id)
		}
		s.byID[id] = p
		s.order = append(s.order, id)
	}
	if len(s.order) == 0 {
		return nil, errors.New("persona catalog is empty")
	}
	return s, nil
}

// Load builds the catalog from a YAML file when path is set, otherwise from
// the built-in defaults.
func Load(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return NewStore(Defaults())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}
	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}
	return NewStore(doc.Personas)
}

// Get returns the persona for id, or ErrNotFound.
func (s *Store) Get(id string) (Persona, error) {
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

// List returns all personas in catalog order.
func (s *Store) List() []Persona {
	out := make([]Persona, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
