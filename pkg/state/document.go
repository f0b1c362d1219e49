// Package state keeps live local copies of the store's documents and collections and mediates
// every write to them.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/sirupsen/logrus"
)

// Document is a live copy of a single document. When the document is missing it is created once
// with the initial value.
type Document[T any] struct {
	store      docstore.Store
	collection string
	id         string
	initial    T
	notifier   notify.Notifier
	log        *logrus.Logger

	mu        sync.RWMutex
	value     T
	loaded    bool
	exists    bool
	seeded    bool
	stop      docstore.Unsubscribe
	listeners map[int]func(T)
	nextID    int
}

func NewDocument[T any](store docstore.Store, collection, id string, initial T, n notify.Notifier, log *logrus.Logger) *Document[T] {
	return &Document[T]{
		store:      store,
		collection: collection,
		id:         id,
		initial:    initial,
		value:      initial,
		notifier:   n,
		log:        log,
		listeners:  map[int]func(T){},
	}
}

// Start opens the live subscription. Calling it twice is a no-op.
func (d *Document[T]) Start(ctx context.Context) {
	d.mu.Lock()
	if d.stop != nil {
		d.mu.Unlock()
		return
	}
	d.stop = func() {}
	d.mu.Unlock()

	stop := d.store.WatchDocument(ctx, d.collection, d.id, func(snap docstore.Snapshot, err error) {
		d.apply(ctx, snap, err)
	})

	d.mu.Lock()
	d.stop = stop
	d.mu.Unlock()
}

func (d *Document[T]) Stop() {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (d *Document[T]) apply(ctx context.Context, snap docstore.Snapshot, err error) {
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"collection": d.collection, "doc": d.id}).Error("document subscription failed")
		return
	}

	if !snap.Exists() {
		d.mu.Lock()
		d.value = d.initial
		d.loaded = true
		d.exists = false
		seed := !d.seeded
		d.seeded = true
		d.mu.Unlock()
		if seed {
			d.seed(ctx)
		}
		return
	}

	var v T
	if err := snap.DataTo(&v); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"collection": d.collection, "doc": d.id}).Error("failed to decode document")
		return
	}

	d.mu.Lock()
	d.value = v
	d.loaded = true
	d.exists = true
	listeners := make([]func(T), 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

func (d *Document[T]) seed(ctx context.Context) {
	err := d.store.CreateDocument(ctx, d.collection, d.id, d.initial)
	if err == nil || errors.Is(err, docstore.ErrAlreadyExists) {
		return
	}
	d.log.WithError(err).WithFields(logrus.Fields{"collection": d.collection, "doc": d.id, "op": "seed"}).Error("failed to create initial document")
}

// Get returns the last snapshot, or the initial value while the document does not exist.
func (d *Document[T]) Get() T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}

func (d *Document[T]) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded && d.exists
}

// Subscribe calls fn with every new snapshot.
func (d *Document[T]) Subscribe(fn func(T)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// Set merges v into the remote document. The local copy changes only when the new snapshot
// comes back.
func (d *Document[T]) Set(ctx context.Context, v T) error {
	if err := d.store.SetDocument(ctx, d.collection, d.id, v, true); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"collection": d.collection, "doc": d.id, "op": "set"}).Error("failed to save document")
		d.notifier.Error(ctx, "Error al guardar los cambios.")
		return fmt.Errorf("save %s/%s: %w", d.collection, d.id, err)
	}
	return nil
}
