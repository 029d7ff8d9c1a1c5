package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/polyglot-coach/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTurnInProgress  = errors.New("a turn is already being processed for this session")
)

type sessionEntry struct {
	session    chat.Session
	transcript *chat.Transcript
	turn       sync.Mutex
}

// Service keeps one transcript per browser session in process memory.
type Service struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionEntry
	personaID   string
	modelName   string
	instruction string
}

// NewService bootstraps the in-memory session registry. Every new session
// starts with instruction as its system turn.
func NewService(personaID, modelName, instruction string) *Service {
	return &Service{
		sessions:    make(map[string]*sessionEntry),
		personaID:   personaID,
		modelName:   modelName,
		instruction: instruction,
	}
}

// CreateSession provisions an anonymous session with a fresh transcript.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: s.personaID,
		Model:     s.modelName,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{
		session:    session,
		transcript: chat.NewTranscript(s.instruction),
	}
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return entry.session, nil
}

// Transcript returns the live transcript owned by the session.
func (s *Service) Transcript(_ context.Context, sessionID string) (*chat.Transcript, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return entry.transcript, nil
}

// BeginTurn reserves the session for one turn-processing cycle. The returned
// release func must be called once the cycle has completed or failed.
func (s *Service) BeginTurn(_ context.Context, sessionID string) (func(), error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if !entry.turn.TryLock() {
		return nil, ErrTurnInProgress
	}
	return entry.turn.Unlock, nil
}

// EndSession drops the session and its transcript. A session with a turn in
// flight is kept so the turn never writes to an orphaned transcript.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if !entry.turn.TryLock() {
		return ErrTurnInProgress
	}
	delete(s.sessions, sessionID)
	entry.turn.Unlock()
	return nil
}

// Count reports the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) lookup(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}
