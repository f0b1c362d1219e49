package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/sirupsen/logrus"
)

// Record pairs a document id with its decoded fields.
type Record[T any] struct {
	DocID string `json:"docId"`
	Data  T      `json:"data"`
}

// Collection is a live copy of every document in a collection.
type Collection[T any] struct {
	store      docstore.Store
	collection string
	notifier   notify.Notifier
	log        *logrus.Logger

	mu        sync.RWMutex
	records   []Record[T]
	loaded    bool
	stop      docstore.Unsubscribe
	listeners map[int]func([]Record[T])
	nextID    int
}

func NewCollection[T any](store docstore.Store, collection string, n notify.Notifier, log *logrus.Logger) *Collection[T] {
	return &Collection[T]{
		store:      store,
		collection: collection,
		notifier:   n,
		log:        log,
		listeners:  map[int]func([]Record[T]){},
	}
}

func (c *Collection[T]) Start(ctx context.Context) {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	c.stop = func() {}
	c.mu.Unlock()

	stop := c.store.WatchCollection(ctx, c.collection, c.apply)

	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()
}

func (c *Collection[T]) Stop() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (c *Collection[T]) apply(snaps []docstore.Snapshot, err error) {
	if err != nil {
		c.log.WithError(err).WithField("collection", c.collection).Error("collection subscription failed")
		return
	}
	records := make([]Record[T], 0, len(snaps))
	for _, s := range snaps {
		var v T
		if err := s.DataTo(&v); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{"collection": c.collection, "doc": s.ID()}).Warn("skipping undecodable document")
			continue
		}
		records = append(records, Record[T]{DocID: s.ID(), Data: v})
	}

	c.mu.Lock()
	c.records = records
	c.loaded = true
	listeners := make([]func([]Record[T]), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(records)
	}
}

// Records returns a copy of the last snapshot.
func (c *Collection[T]) Records() []Record[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record[T], len(c.records))
	copy(out, c.records)
	return out
}

// Find returns the record with the given document id.
func (c *Collection[T]) Find(docID string) (Record[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.records {
		if r.DocID == docID {
			return r, true
		}
	}
	return Record[T]{}, false
}

func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Collection[T]) Subscribe(fn func([]Record[T])) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Collection[T]) fail(ctx context.Context, err error, op, docID, message string) error {
	c.log.WithError(err).WithFields(logrus.Fields{"collection": c.collection, "doc": docID, "op": op}).Error("collection write failed")
	c.notifier.Error(ctx, message)
	return fmt.Errorf("%s %s/%s: %w", op, c.collection, docID, err)
}

// Add stores v as a new document and returns its id.
func (c *Collection[T]) Add(ctx context.Context, v T) (string, error) {
	id, err := c.store.AddDocument(ctx, c.collection, v)
	if err != nil {
		return "", c.fail(ctx, err, "add", "", "Error al guardar.")
	}
	return id, nil
}

// Put writes v under docID, replacing what was there.
func (c *Collection[T]) Put(ctx context.Context, docID string, v T) error {
	if err := c.store.SetDocument(ctx, c.collection, docID, v, false); err != nil {
		return c.fail(ctx, err, "set", docID, "Error al guardar.")
	}
	return nil
}

// Update patches the named top-level fields of one document.
func (c *Collection[T]) Update(ctx context.Context, docID string, fields map[string]interface{}) error {
	if err := c.store.UpdateDocument(ctx, c.collection, docID, fields); err != nil {
		return c.fail(ctx, err, "update", docID, "Error al actualizar.")
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, docID string) error {
	if err := c.store.DeleteDocument(ctx, c.collection, docID); err != nil {
		return c.fail(ctx, err, "delete", docID, "Error al eliminar.")
	}
	return nil
}
