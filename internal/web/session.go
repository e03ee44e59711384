package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parisxmas/leadsite/internal/leadclient"
	"github.com/parisxmas/leadsite/internal/wizard"
)

const sessionCookie = "leadsite_wizard"

// Session is one visitor's wizard. Handlers lock it for the whole request.
type Session struct {
	ID string

	mu       sync.Mutex
	ctrl     *wizard.Controller
	outcome  *leadclient.Outcome
	errors   map[string]string
	lastSeen time.Time
}

func (s *Session) reset() {
	s.ctrl = wizard.New()
	s.outcome = nil
	s.errors = nil
}

// SessionStore keeps wizard sessions in memory and drops idle ones.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{ttl: ttl, now: time.Now, sessions: make(map[string]*Session)}
}

// Load returns the session named by the request cookie, creating one (and
// setting the cookie) when it is missing or expired.
func (st *SessionStore) Load(w http.ResponseWriter, r *http.Request) *Session {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := st.sessions[c.Value]; ok && now.Sub(s.lastSeen) < st.ttl {
			s.lastSeen = now
			return s
		}
	}

	s := &Session{ID: uuid.NewString(), ctrl: wizard.New(), lastSeen: now}
	st.sessions[s.ID] = s
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(st.ttl.Seconds()),
	})
	return s
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and reports how many.
func (st *SessionStore) Sweep() int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) >= st.ttl {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (st *SessionStore) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st.Sweep()
		}
	}
}
