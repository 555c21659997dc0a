package whatsapp

import (
	"context"
	"sync"

	"go.mau.fi/whatsmeow"
)

// SessionHandle is the live in-memory connection for one session. At most one
// handle exists per session id at any time; the Registry enforces that.
type SessionHandle struct {
	SessionID string
	OrgID     string
	Client    *whatsmeow.Client

	cancel  context.CancelFunc
	closing bool
	mu      sync.Mutex
}

// markClosing flags the handle so the disconnect path is not mistaken for a
// recoverable drop. Returns false if it was already closing.
func (h *SessionHandle) markClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.closing = true
	return true
}

func (h *SessionHandle) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

// Registry maps session ids to live handles. It is the single source of truth
// for "is this session currently connected".
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*SessionHandle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*SessionHandle)}
}

func (r *Registry) Get(sessionID string) (*SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[sessionID]
	return h, ok
}

// Set replaces any existing handle for the session and returns the replaced
// one, if any, so the caller can tear it down.
func (r *Registry) Set(handle *SessionHandle) *SessionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.handles[handle.SessionID]
	r.handles[handle.SessionID] = handle
	return old
}

func (r *Registry) Remove(sessionID string) *SessionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.handles[sessionID]
	delete(r.handles, sessionID)
	return h
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	return ids
}
