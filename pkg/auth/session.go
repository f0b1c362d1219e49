package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andrescris/storefront/pkg/models"
	"github.com/google/uuid"
)

// Status of a browser session.
type Status string

const (
	SignedOut      Status = "signed-out"
	Authenticating Status = "authenticating"
	SignedIn       Status = "signed-in"
)

var (
	ErrInvalidTransition = errors.New("auth: invalid session transition")
	ErrSessionNotFound   = errors.New("auth: session not found")
)

// View is what a session looks like at one moment. Role is empty for an identity without a
// role record.
type View struct {
	ID     string      `json:"sessionId"`
	Status Status      `json:"status"`
	UID    string      `json:"uid,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   models.Role `json:"role,omitempty"`
}

// HasPanelAccess is true only for signed-in sessions with a valid role record.
func (v View) HasPanelAccess() bool {
	return v.Status == SignedIn && v.Role.Valid()
}

func (v View) Can(c Capability) bool {
	return v.Status == SignedIn && Can(v.Role, c)
}

func (v View) Tabs() []string {
	if !v.HasPanelAccess() {
		return []string{}
	}
	return AvailableTabs(v.Role)
}

// Session follows SignedOut → Authenticating → SignedIn, with SignedIn able to change role
// and everything able to go back to SignedOut.
type Session struct {
	mu        sync.Mutex
	view      View
	lastSeen  time.Time
	observers map[int]func(View)
	nextObs   int
}

func newSession(id string) *Session {
	return &Session{view: View{ID: id, Status: SignedOut}, lastSeen: time.Now(), observers: map[int]func(View){}}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Observe calls fn on every transition.
func (s *Session) Observe(fn func(View)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func allowed(from, to Status) bool {
	switch to {
	case SignedOut:
		return true
	case Authenticating:
		return from == SignedOut
	case SignedIn:
		return from == Authenticating || from == SignedIn
	}
	return false
}

func (s *Session) transition(next View) error {
	s.mu.Lock()
	if !allowed(s.view.Status, next.Status) {
		from := s.view.Status
		s.mu.Unlock()
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, next.Status)
	}
	next.ID = s.view.ID
	s.view = next
	s.lastSeen = time.Now()
	observers := make([]func(View), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
	return nil
}

func (s *Session) beginAuth() error { return s.transition(View{Status: Authenticating}) }
func (s *Session) signOut() error   { return s.transition(View{Status: SignedOut}) }

func (s *Session) signIn(p Principal, role models.Role) error {
	return s.transition(View{Status: SignedIn, UID: p.UID, Email: p.Email, Role: role})
}

// Registry holds the sessions of this process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
}

func NewRegistry(idle time.Duration) *Registry {
	if idle <= 0 {
		idle = 12 * time.Hour
	}
	return &Registry{sessions: map[string]*Session{}, idle: idle}
}

func (r *Registry) create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	s := newSession(uuid.NewString())
	r.sessions[s.view.ID] = s
	return s
}

// Get returns a live session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	expired := time.Since(s.lastSeen) > r.idle
	if !expired {
		s.lastSeen = time.Now()
	}
	s.mu.Unlock()
	if expired {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// ForUID returns the sessions signed in as uid.
func (r *Registry) ForUID(uid string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for _, s := range r.sessions {
		if v := s.View(); v.Status == SignedIn && v.UID == uid {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) all() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) pruneLocked() {
	for id, s := range r.sessions {
		s.mu.Lock()
		stale := time.Since(s.lastSeen) > r.idle
		s.mu.Unlock()
		if stale {
			delete(r.sessions, id)
		}
	}
}
