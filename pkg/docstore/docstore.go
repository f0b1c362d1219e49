// Package docstore is the narrow contract the application keeps with the document database:
// live document and collection snapshots, merge writes, point deletes and small atomic
// read-modify-write transactions.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrAlreadyExists = errors.New("docstore: document already exists")
	// ErrContention is returned when a transaction keeps losing to concurrent commits.
	ErrContention = errors.New("docstore: transaction aborted after too many conflicting commits")
)

// Snapshot is the state of one document at the moment it was read.
type Snapshot interface {
	ID() string
	Exists() bool
	DataTo(v interface{}) error
}

// DocumentListener receives every snapshot of a watched document, or the error that ended the
// subscription.
type DocumentListener func(snap Snapshot, err error)

// CollectionListener receives the full list of documents each time the collection changes.
type CollectionListener func(snaps []Snapshot, err error)

// Unsubscribe tears a live subscription down. It is safe to call more than once.
type Unsubscribe func()

// Tx is the view a transaction function gets. Reads of missing documents return a snapshot whose
// Exists is false and a nil error.
type Tx interface {
	Get(collection, id string) (Snapshot, error)
	Set(collection, id string, data interface{}, merge bool) error
}

type TxFunc func(ctx context.Context, tx Tx) error

type Store interface {
	WatchDocument(ctx context.Context, collection, id string, fn DocumentListener) Unsubscribe
	WatchCollection(ctx context.Context, collection string, fn CollectionListener) Unsubscribe

	// GetDocument returns ErrNotFound for missing documents.
	GetDocument(ctx context.Context, collection, id string) (Snapshot, error)
	SetDocument(ctx context.Context, collection, id string, data interface{}, merge bool) error
	// CreateDocument fails with ErrAlreadyExists when the document is already there.
	CreateDocument(ctx context.Context, collection, id string, data interface{}) error
	AddDocument(ctx context.Context, collection string, data interface{}) (string, error)
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error
	DeleteDocument(ctx context.Context, collection, id string) error

	RunTransaction(ctx context.Context, fn TxFunc) error
	Close() error
}

type missingSnapshot struct{ id string }

func (s missingSnapshot) ID() string   { return s.id }
func (s missingSnapshot) Exists() bool { return false }
func (s missingSnapshot) DataTo(interface{}) error {
	return ErrNotFound
}
