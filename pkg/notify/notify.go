// Package notify keeps the transient toast notifications shown to the user after an operation
// succeeds or fails. A toast is only visible to the audience of the request that raised it.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 3 * time.Second

type Type string

const (
	Success Type = "success"
	Error   Type = "error"
)

type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	Audience  []string  `json:"-"`
}

// VisibleTo reports whether any of keys is in the toast's audience.
func (t Toast) VisibleTo(keys []string) bool {
	for _, a := range t.Audience {
		for _, k := range keys {
			if a == k {
				return true
			}
		}
	}
	return false
}

type audienceKey struct{}

// CartAudience and SessionAudience build the keys a visitor is known by.
func CartAudience(cartID string) string       { return "cart:" + cartID }
func SessionAudience(sessionID string) string { return "session:" + sessionID }

// WithAudience returns a ctx whose toasts also go to keys. Empty keys are skipped.
func WithAudience(ctx context.Context, keys ...string) context.Context {
	current := AudienceFrom(ctx)
	out := make([]string, 0, len(current)+len(keys))
	out = append(out, current...)
	for _, k := range keys {
		if k == "" || k == "cart:" || k == "session:" {
			continue
		}
		dup := false
		for _, c := range out {
			if c == k {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, k)
		}
	}
	return context.WithValue(ctx, audienceKey{}, out)
}

func AudienceFrom(ctx context.Context) []string {
	keys, _ := ctx.Value(audienceKey{}).([]string)
	return keys
}

// Notifier is what the domain packages depend on. The audience is read from ctx.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// Listener is called with every toast that is shown.
type Listener func(Toast)

// Hub holds the active toasts and fans them out to listeners.
type Hub struct {
	mu        sync.Mutex
	ttl       time.Duration
	active    []Toast
	listeners map[int]Listener
	nextID    int
}

func NewHub(ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Hub{ttl: ttl, listeners: map[int]Listener{}}
}

func (h *Hub) Success(ctx context.Context, message string) { h.show(ctx, message, Success) }
func (h *Hub) Error(ctx context.Context, message string)   { h.show(ctx, message, Error) }

// show drops toasts raised without an audience; there is nobody to show them to.
func (h *Hub) show(ctx context.Context, message string, typ Type) {
	audience := AudienceFrom(ctx)
	if len(audience) == 0 {
		return
	}
	t := Toast{ID: uuid.NewString(), Message: message, Type: typ, CreatedAt: time.Now().UTC(), Audience: audience}

	h.mu.Lock()
	h.active = append(h.active, t)
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	time.AfterFunc(h.ttl, func() { h.expire(t.ID) })

	for _, l := range listeners {
		l(t)
	}
}

func (h *Hub) expire(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(id, nil)
}

// Dismiss removes a toast before its timer fires. It only touches toasts visible to keys and
// reports whether one was removed.
func (h *Hub) Dismiss(id string, keys ...string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remove(id, func(t Toast) bool { return t.VisibleTo(keys) })
}

func (h *Hub) remove(id string, allowed func(Toast) bool) bool {
	for i, t := range h.active {
		if t.ID != id {
			continue
		}
		if allowed != nil && !allowed(t) {
			return false
		}
		h.active = append(h.active[:i], h.active[i+1:]...)
		return true
	}
	return false
}

// Active returns the toasts visible to keys, oldest first.
func (h *Hub) Active(keys ...string) []Toast {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Toast, 0, len(h.active))
	for _, t := range h.active {
		if t.VisibleTo(keys) {
			out = append(out, t)
		}
	}
	return out
}

func (h *Hub) Subscribe(fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Success(context.Context, string) {}
func (Discard) Error(context.Context, string)   {}
