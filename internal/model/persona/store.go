package persona

import (
	"errors"
	"fmt"
	"slices"
)

var ErrNotFound = errors.New("persona not found")

// Store exposes persona retrieval for HTTP handlers and session bootstrap.
type Store interface {
	List() []Persona
	Get(id string) (Persona, error)
}

// MemoryStore keeps personas in insertion order behind an id index. It is
// read-only after construction.
type MemoryStore struct {
	order []string
	byID  map[string]Persona
}

// NewMemoryStore indexes items, rejecting blank or duplicate ids.
func NewMemoryStore(items []Persona) (*MemoryStore, error) {
	s := &MemoryStore{byID: make(map[string]Persona, len(items))}
	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("persona %q has no id", item.Name)
		}
		if _, dup := s.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", item.ID)
		}
		s.order = append(s.order, item.ID)
		s.byID[item.ID] = item
	}
	return s, nil
}

func (s *MemoryStore) List() []Persona {
	out := make([]Persona, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].clone())
	}
	return out
}

func (s *MemoryStore) Get(id string) (Persona, error) {
	p, ok := s.byID[id]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.clone(), nil
}

func (p Persona) clone() Persona {
	p.CorrectionSteps = slices.Clone(p.CorrectionSteps)
	p.QuestionStyle = slices.Clone(p.QuestionStyle)
	p.Rules = slices.Clone(p.Rules)
	return p
}
