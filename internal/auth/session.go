package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"filmdb.org/internal/obs"
)

// Session is the per-client login state. The zero value is an
// unauthenticated session; identity fields are only set together with
// Authenticated.
type Session struct {
	ID            string    `json:"session_id,omitempty"`
	Authenticated bool      `json:"authenticated"`
	UserID        int64     `json:"user_id,omitempty"`
	Username      string    `json:"username,omitempty"`
	Role          Role      `json:"role,omitempty"`
	FullName      string    `json:"full_name,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Establish builds an authenticated session for u.
func Establish(u UserSummary, now time.Time) Session {
	return Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		UserID:        u.ID,
		Username:      u.Username,
		Role:          u.Role,
		FullName:      u.FullName,
		CreatedAt:     now.UTC(),
	}
}

// Clear returns the logged-out session.
func (s Session) Clear() Session { return Session{} }

// Summary returns the identity carried by s.
func (s Session) Summary() UserSummary {
	return UserSummary{ID: s.UserID, Username: s.Username, FullName: s.FullName, Role: s.Role}
}

// Sessions tracks the sessions opened by this process. Entries live only in
// memory and disappear on logout, idle expiry or restart.
type Sessions struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	idle    time.Duration
	now     func() time.Time
	observe func(open int)
}

type sessionEntry struct {
	session  Session
	lastSeen time.Time
}

// NewSessions returns an empty registry. idle <= 0 disables expiry.
func NewSessions(idle time.Duration) *Sessions {
	return &Sessions{
		entries: make(map[string]*sessionEntry),
		idle:    idle,
		now:     time.Now,
		observe: obs.SetActiveSessions,
	}
}

// Open registers a new authenticated session for u.
func (r *Sessions) Open(u UserSummary) Session {
	now := r.now()
	s := Establish(u, now)
	r.mu.Lock()
	r.entries[s.ID] = &sessionEntry{session: s, lastSeen: now}
	r.observe(len(r.entries))
	r.mu.Unlock()
	return s
}

// Get returns the session registered under id and refreshes its idle timer.
func (r *Sessions) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return Session{}, false
	}
	now := r.now()
	if r.idle > 0 && now.Sub(e.lastSeen) > r.idle {
		delete(r.entries, id)
		r.observe(len(r.entries))
		return Session{}, false
	}
	e.lastSeen = now
	return e.session, true
}

// Close forgets the session. It reports whether the session existed.
func (r *Sessions) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	r.observe(len(r.entries))
	return true
}

// CloseUser forgets every session of userID and returns how many were
// open. Tokens bound to them stop resolving immediately.
func (r *Sessions) CloseUser(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	closed := 0
	for id, e := range r.entries {
		if e.session.UserID == userID {
			delete(r.entries, id)
			closed++
		}
	}
	if closed > 0 {
		r.observe(len(r.entries))
	}
	return closed
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep drops sessions idle for longer than the configured timeout and
// returns how many were removed.
func (r *Sessions) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idle {
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		r.observe(len(r.entries))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Sessions) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
