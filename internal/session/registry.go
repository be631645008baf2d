package session

import "sync"

// Registry maps guild IDs to their sessions. Create is lazy; removal only
// happens on explicit stop/leave or inactivity timeout.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the guild's session, calling create under the registry
// lock when none exists yet. Per-key atomicity is all that's needed here;
// sessions for different guilds never interact.
func (r *Registry) GetOrCreate(guildID string, create func() *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := create()
	r.sessions[guildID] = s
	return s
}

// Peek returns the guild's session or nil without creating one.
func (r *Registry) Peek(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[guildID]
}

func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
}

// GuildIDs returns a snapshot of guilds with a session. Used for shutdown.
func (r *Registry) GuildIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
