package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "cart:"

// Sessions keeps one cart per visitor. The live cart is held in process and written to Storage
// after every change; Storage is only read the first time a cart id is seen. A failed write is
// logged and otherwise ignored, so the cart stays correct for as long as the process keeps it.
type Sessions struct {
	storage Storage
	log     *logrus.Logger
	idle    time.Duration

	mu    sync.Mutex
	carts map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	cart     Cart
	loaded   bool
	lastSeen time.Time
}

// NewSessions builds the session store. Carts untouched for longer than idle are dropped from
// memory (they remain in Storage).
func NewSessions(storage Storage, idle time.Duration, log *logrus.Logger) *Sessions {
	if idle <= 0 {
		idle = 24 * time.Hour
	}
	return &Sessions{storage: storage, log: log, idle: idle, carts: map[string]*entry{}}
}

// NewID returns a fresh cart id for a visitor without one.
func NewID() string { return uuid.NewString() }

func (s *Sessions) entry(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.carts {
		if k != id && now.Sub(e.lastSeen) > s.idle {
			delete(s.carts, k)
		}
	}
	e, ok := s.carts[id]
	if !ok {
		e = &entry{}
		s.carts[id] = e
	}
	e.lastSeen = now
	return e
}

func (s *Sessions) load(ctx context.Context, id string, e *entry) {
	if e.loaded {
		return
	}
	e.loaded = true
	raw, err := s.storage.Get(ctx, keyPrefix+id)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.log.WithError(err).WithField("cart", id).Warn("could not read stored cart, starting empty")
		}
		return
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.log.WithError(err).WithField("cart", id).Warn("stored cart is corrupt, starting empty")
		return
	}
	valid := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != "" && it.Quantity > 0 {
			valid = append(valid, it)
		}
	}
	c.Items = valid
	e.cart = c
}

func (s *Sessions) persist(ctx context.Context, id string, c Cart) {
	raw, err := json.Marshal(c)
	if err == nil {
		err = s.storage.Set(ctx, keyPrefix+id, string(raw))
	}
	if err != nil {
		s.log.WithError(err).WithField("cart", id).Warn("could not persist cart")
	}
}

// Get returns a copy of the visitor's cart.
func (s *Sessions) Get(ctx context.Context, id string) Cart {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	s.load(ctx, id, e)
	return Cart{Items: e.cart.Snapshot()}
}

// Update applies fn to the cart and persists the result. When fn fails nothing changes.
func (s *Sessions) Update(ctx context.Context, id string, fn func(*Cart) error) (Cart, error) {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	s.load(ctx, id, e)

	work := Cart{Items: e.cart.Snapshot()}
	if err := fn(&work); err != nil {
		return Cart{Items: e.cart.Snapshot()}, err
	}
	e.cart = work
	s.persist(ctx, id, work)
	return Cart{Items: work.Snapshot()}, nil
}

// Clear empties the cart.
func (s *Sessions) Clear(ctx context.Context, id string) {
	_, _ = s.Update(ctx, id, func(c *Cart) error {
		c.Clear()
		return nil
	})
}
