package chat

import (
	"errors"
	"sync"
)

var ErrSystemTurn = errors.New("transcript already holds the system turn")

// Transcript is the ordered, append-only sequence of turns of one session.
// The first turn is always the persona instruction and is never rendered.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewTranscript creates a transcript holding only the system instruction.
func NewTranscript(instruction string) *Transcript {
	turns := make([]Turn, 1, 16)
	turns[0] = Turn{Role: RoleSystem, Content: instruction}
	return &Transcript{turns: turns}
}

// Append adds a user or assistant turn at the end.
func (t *Transcript) Append(role Role, content string) error {
	turn, err := NewTurn(role, content)
	if err != nil {
		return err
	}
	if turn.Role == RoleSystem {
		return ErrSystemTurn
	}

	t.mu.Lock()
	t.turns = append(t.turns, turn)
	t.mu.Unlock()
	return nil
}

// All returns a copy of every turn in conversation order, system turn first.
func (t *Transcript) All() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]Turn, len(t.turns))
	copy(copied, t.turns)
	return copied
}

// Rendered returns the turns shown to the user.
func (t *Transcript) Rendered() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	visible := make([]Turn, 0, len(t.turns))
	for _, turn := range t.turns {
		if turn.Role == RoleSystem {
			continue
		}
		visible = append(visible, turn)
	}
	return visible
}

// Len reports the number of turns, system turn included.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}
