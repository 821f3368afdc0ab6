package bot

import (
	"sync"
)

// SessionManager owns the per-channel sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for a channel, creating it on first use.
func (m *SessionManager) Get(channelID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[channelID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[channelID]; ok {
		return s
	}
	s = NewSession(channelID)
	m.sessions[channelID] = s
	return s
}

// SessionInfo is a point-in-time view of one session, used by the status
// endpoint.
type SessionInfo struct {
	Channel string `json:"channel"`
	State   string `json:"state"`
	Kata    string `json:"kata,omitempty"`
}

// Snapshot returns a view of all live sessions. Command handlers hold a
// session's lock across remote calls, so a contended session is reported
// as busy rather than waited on.
func (m *SessionManager) Snapshot() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		info := SessionInfo{Channel: s.ChannelID}
		if s.mu.TryLock() {
			info.State = s.state.String()
			if s.active != nil {
				info.Kata = s.active.Slug
			}
			s.mu.Unlock()
		} else {
			info.State = "busy"
		}
		infos = append(infos, info)
	}
	return infos
}

// Shutdown cancels any in-flight polling on all sessions.
func (m *SessionManager) Shutdown() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.mu.Lock()
		if s.cancelPoll != nil {
			s.cancelPoll()
			s.cancelPoll = nil
		}
		s.mu.Unlock()
	}
}
