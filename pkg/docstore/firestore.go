package docstore

import (
	"context"
	"errors"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore implements Store on top of a Cloud Firestore client.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

type firestoreSnapshot struct {
	snap *firestore.DocumentSnapshot
}

func (s firestoreSnapshot) ID() string                 { return s.snap.Ref.ID }
func (s firestoreSnapshot) Exists() bool               { return s.snap.Exists() }
func (s firestoreSnapshot) DataTo(v interface{}) error { return s.snap.DataTo(v) }

func wrap(snap *firestore.DocumentSnapshot, id string) Snapshot {
	if snap == nil || snap.Ref == nil {
		return missingSnapshot{id: id}
	}
	return firestoreSnapshot{snap: snap}
}

func translate(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	}
	return err
}

func stopped(ctx context.Context, err error) bool {
	return ctx.Err() != nil || status.Code(err) == codes.Canceled
}

func (f *Firestore) WatchDocument(ctx context.Context, collection, id string, fn DocumentListener) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	it := f.client.Collection(collection).Doc(id).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if !stopped(ctx, err) {
					fn(nil, err)
				}
				return
			}
			fn(wrap(snap, id), nil)
		}
	}()
	return Unsubscribe(cancel)
}

func (f *Firestore) WatchCollection(ctx context.Context, collection string, fn CollectionListener) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	it := f.client.Collection(collection).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if !stopped(ctx, err) {
					fn(nil, err)
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				if !stopped(ctx, err) {
					fn(nil, err)
				}
				return
			}
			snaps := make([]Snapshot, 0, len(docs))
			for _, d := range docs {
				snaps = append(snaps, firestoreSnapshot{snap: d})
			}
			fn(snaps, nil)
		}
	}()
	return Unsubscribe(cancel)
}

func (f *Firestore) GetDocument(ctx context.Context, collection, id string) (Snapshot, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return wrap(snap, id), nil
}

func setOptions(data interface{}, merge bool) (interface{}, []firestore.SetOption, error) {
	if !merge {
		return data, nil, nil
	}
	// MergeAll only accepts map data.
	m, err := toMap(data)
	if err != nil {
		return nil, nil, err
	}
	return m, []firestore.SetOption{firestore.MergeAll}, nil
}

func (f *Firestore) SetDocument(ctx context.Context, collection, id string, data interface{}, merge bool) error {
	payload, opts, err := setOptions(data, merge)
	if err != nil {
		return err
	}
	_, err = f.client.Collection(collection).Doc(id).Set(ctx, payload, opts...)
	return translate(err)
}

func (f *Firestore) CreateDocument(ctx context.Context, collection, id string, data interface{}) error {
	_, err := f.client.Collection(collection).Doc(id).Create(ctx, data)
	return translate(err)
}

func (f *Firestore) AddDocument(ctx context.Context, collection string, data interface{}) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", translate(err)
	}
	return ref.ID, nil
}

func (f *Firestore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	paths := make([]string, 0, len(fields))
	for k := range fields {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	updates := make([]firestore.Update, 0, len(paths))
	for _, p := range paths {
		updates = append(updates, firestore.Update{Path: p, Value: fields[p]})
	}
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	return translate(err)
}

func (f *Firestore) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := f.client.Collection(collection).Doc(id).Delete(ctx)
	return translate(err)
}

func (f *Firestore) RunTransaction(ctx context.Context, fn TxFunc) error {
	return f.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: f.client, tx: t})
	})
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) Get(collection, id string) (Snapshot, error) {
	snap, err := t.tx.Get(t.client.Collection(collection).Doc(id))
	if err != nil {
		if errors.Is(translate(err), ErrNotFound) {
			return missingSnapshot{id: id}, nil
		}
		return nil, err
	}
	return wrap(snap, id), nil
}

func (t *firestoreTx) Set(collection, id string, data interface{}, merge bool) error {
	payload, opts, err := setOptions(data, merge)
	if err != nil {
		return err
	}
	return t.tx.Set(t.client.Collection(collection).Doc(id), payload, opts...)
}
