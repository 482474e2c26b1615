package player

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns every live playback session, one per open content item.
// Creating a session for a viewer supersedes that viewer's previous session:
// the old event loop drains (so a pending ended-completion has been handed
// off) before the new session becomes visible.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byViewer map[string]string
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byViewer: make(map[string]string),
	}
}

// Create opens a session for a content selection, tearing down any existing
// session for the same viewer key first.
func (m *Manager) Create(p Params) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prevID, ok := m.byViewer[p.ViewerKey]; ok {
		if prev, ok := m.sessions[prevID]; ok {
			prev.Close()
			delete(m.sessions, prevID)
			log.Printf("[SESSION] superseded %s for viewer %s", prevID, p.ViewerKey)
		}
		delete(m.byViewer, p.ViewerKey)
	}

	s := NewSession(uuid.NewString(), p)
	m.sessions[s.ID] = s
	if p.ViewerKey != "" {
		m.byViewer[p.ViewerKey] = s.ID
	}
	return s
}

// Get returns the session by id, or nil
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Destroy closes and removes one session
func (m *Manager) Destroy(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		if s.ViewerKey != "" && m.byViewer[s.ViewerKey] == id {
			delete(m.byViewer, s.ViewerKey)
		}
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	return true
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle beyond ttl and refreshes near-expiry signed URLs
// on the rest. Called by the cron reaper.
func (m *Manager) Sweep(ttl, expirySlack time.Duration) int {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	closed := 0
	for _, s := range live {
		snap, err := s.Snapshot()
		if err != nil {
			continue
		}
		if time.Since(snap.LastActivityAt) > ttl {
			log.Printf("[SESSION-REAPER] closing idle session %s", s.ID)
			if m.Destroy(s.ID) {
				closed++
			}
			continue
		}
		if err := s.EnsureFreshSource(expirySlack); err != nil {
			log.Printf("[SESSION-REAPER] source refresh failed for session %s: %v", s.ID, err)
		}
	}
	return closed
}

// Shutdown closes every live session and waits for their loops to drain
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		live = append(live, s)
		delete(m.sessions, id)
	}
	m.byViewer = make(map[string]string)
	m.mu.Unlock()

	for _, s := range live {
		s.Close()
	}
}
