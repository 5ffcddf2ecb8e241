package chat

import (
	"sync"

	"github.com/studyowl/studyowl/internal/core"
)

// SessionStore keeps one Engine per user so follow-up questions share
// history across requests. Ending a session discards its history.
type SessionStore struct {
	embedder core.EmbeddingProvider
	index    core.VectorIndex
	llm      core.LLMProvider
	audit    core.AuditSink
	opts     Options

	mu       sync.Mutex
	sessions map[string]*Engine
}

// SetOptions replaces the options applied to sessions created from now on.
// Existing sessions keep the options they started with.
func (s *SessionStore) SetOptions(opts Options) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

func NewSessionStore(emb core.EmbeddingProvider, idx core.VectorIndex, llm core.LLMProvider, audit core.AuditSink, opts Options) *SessionStore {
	return &SessionStore{
		embedder: emb,
		index:    idx,
		llm:      llm,
		audit:    audit,
		opts:     opts,
		sessions: make(map[string]*Engine),
	}
}

// Get returns the engine for userID, creating one on first use.
func (s *SessionStore) Get(userID, role string) *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eng, ok := s.sessions[userID]; ok {
		return eng
	}
	eng := NewEngine(s.embedder, s.index, s.llm, s.audit, role, s.opts)
	s.sessions[userID] = eng
	return eng
}

// End removes the user's session and its history.
func (s *SessionStore) End(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}
