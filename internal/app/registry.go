package app

import "sync"

// Registry maps quiz ids to their single active live session. The registry
// lock only guards the map; each session serializes its own mutations.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) GetOrCreate(quizID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[quizID]; ok {
		return session
	}
	session := newSession(quizID)
	r.sessions[quizID] = session
	return session
}

func (r *Registry) Get(quizID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[quizID]
	return session, ok
}

func (r *Registry) Remove(quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, quizID)
}

// Snapshot returns a copy of the live map for sweeps that must touch every
// session, such as disconnect handling.
func (r *Registry) Snapshot() map[string]*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Session, len(r.sessions))
	for quizID, session := range r.sessions {
		out[quizID] = session
	}
	return out
}
