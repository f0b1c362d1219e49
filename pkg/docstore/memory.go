package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Op names a Memory operation for error injection.
type Op string

const (
	OpGet         Op = "get"
	OpSet         Op = "set"
	OpCreate      Op = "create"
	OpAdd         Op = "add"
	OpUpdate      Op = "update"
	OpDelete      Op = "delete"
	OpTransaction Op = "transaction"
)

// Memory is an in-process Store. Listeners run synchronously, in write order, on the goroutine
// that performed the write. Transactions are optimistic: reads record document versions and the
// commit is retried when any of them moved.
type Memory struct {
	mu       sync.Mutex
	clock    int64
	docs     map[string]map[string]*memDoc
	docSubs  map[string]map[int]DocumentListener
	collSubs map[string]map[int]CollectionListener
	nextSub  int
	failures map[Op][]error
	attempts int
}

type memDoc struct {
	data    map[string]interface{}
	version int64
}

func NewMemory() *Memory {
	return &Memory{
		docs:     map[string]map[string]*memDoc{},
		docSubs:  map[string]map[int]DocumentListener{},
		collSubs: map[string]map[int]CollectionListener{},
		failures: map[Op][]error{},
	}
}

// FailNext makes the next call of op return err.
func (m *Memory) FailNext(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

// TransactionAttempts counts transaction function runs, retries included.
func (m *Memory) TransactionAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *Memory) takeFailure(op Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.failures[op]
	if len(queue) == 0 {
		return nil
	}
	m.failures[op] = queue[1:]
	return queue[0]
}

type memSnapshot struct {
	id   string
	data map[string]interface{}
}

func (s memSnapshot) ID() string   { return s.id }
func (s memSnapshot) Exists() bool { return true }
func (s memSnapshot) DataTo(v interface{}) error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func docKey(collection, id string) string { return collection + "/" + id }

// snapshotLocked must be called with m.mu held.
func (m *Memory) snapshotLocked(collection, id string) Snapshot {
	d, ok := m.docs[collection][id]
	if !ok {
		return missingSnapshot{id: id}
	}
	return memSnapshot{id: id, data: deepCopy(d.data).(map[string]interface{})}
}

func (m *Memory) collectionLocked(collection string) []Snapshot {
	ids := make([]string, 0, len(m.docs[collection]))
	for id := range m.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.snapshotLocked(collection, id))
	}
	return out
}

type change struct{ collection, id string }

type delivery func()

// pendingLocked builds the listener calls for a set of changes while the lock is held; they run
// after it is released.
func (m *Memory) pendingLocked(changes []change) []delivery {
	var out []delivery
	seenColl := map[string]bool{}
	for _, c := range changes {
		snap := m.snapshotLocked(c.collection, c.id)
		for _, fn := range m.docSubs[docKey(c.collection, c.id)] {
			fn := fn
			out = append(out, func() { fn(snap, nil) })
		}
		if seenColl[c.collection] {
			continue
		}
		seenColl[c.collection] = true
		list := m.collectionLocked(c.collection)
		for _, fn := range m.collSubs[c.collection] {
			fn := fn
			out = append(out, func() { fn(list, nil) })
		}
	}
	return out
}

func run(ds []delivery) {
	for _, d := range ds {
		d()
	}
}

func (m *Memory) writeLocked(collection, id string, data map[string]interface{}, merge bool) {
	coll, ok := m.docs[collection]
	if !ok {
		coll = map[string]*memDoc{}
		m.docs[collection] = coll
	}
	m.clock++
	existing, ok := coll[id]
	if merge && ok {
		mergeInto(existing.data, data)
		existing.version = m.clock
		return
	}
	coll[id] = &memDoc{data: data, version: m.clock}
}

func (m *Memory) WatchDocument(ctx context.Context, collection, id string, fn DocumentListener) Unsubscribe {
	m.mu.Lock()
	key := docKey(collection, id)
	if m.docSubs[key] == nil {
		m.docSubs[key] = map[int]DocumentListener{}
	}
	m.nextSub++
	subID := m.nextSub
	m.docSubs[key][subID] = fn
	snap := m.snapshotLocked(collection, id)
	m.mu.Unlock()

	fn(snap, nil)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.docSubs[key], subID)
			m.mu.Unlock()
		})
	}
}

func (m *Memory) WatchCollection(ctx context.Context, collection string, fn CollectionListener) Unsubscribe {
	m.mu.Lock()
	if m.collSubs[collection] == nil {
		m.collSubs[collection] = map[int]CollectionListener{}
	}
	m.nextSub++
	subID := m.nextSub
	m.collSubs[collection][subID] = fn
	list := m.collectionLocked(collection)
	m.mu.Unlock()

	fn(list, nil)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.collSubs[collection], subID)
			m.mu.Unlock()
		})
	}
}

func (m *Memory) GetDocument(ctx context.Context, collection, id string) (Snapshot, error) {
	if err := m.takeFailure(OpGet); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshotLocked(collection, id)
	if !snap.Exists() {
		return nil, ErrNotFound
	}
	return snap, nil
}

func (m *Memory) SetDocument(ctx context.Context, collection, id string, data interface{}, merge bool) error {
	if err := m.takeFailure(OpSet); err != nil {
		return err
	}
	doc, err := toMap(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.writeLocked(collection, id, doc, merge)
	ds := m.pendingLocked([]change{{collection, id}})
	m.mu.Unlock()
	run(ds)
	return nil
}

func (m *Memory) CreateDocument(ctx context.Context, collection, id string, data interface{}) error {
	if err := m.takeFailure(OpCreate); err != nil {
		return err
	}
	doc, err := toMap(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if _, exists := m.docs[collection][id]; exists {
		m.mu.Unlock()
		return ErrAlreadyExists
	}
	m.writeLocked(collection, id, doc, false)
	ds := m.pendingLocked([]change{{collection, id}})
	m.mu.Unlock()
	run(ds)
	return nil
}

func (m *Memory) AddDocument(ctx context.Context, collection string, data interface{}) (string, error) {
	if err := m.takeFailure(OpAdd); err != nil {
		return "", err
	}
	doc, err := toMap(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.writeLocked(collection, id, doc, false)
	ds := m.pendingLocked([]change{{collection, id}})
	m.mu.Unlock()
	run(ds)
	return id, nil
}

func (m *Memory) UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := m.takeFailure(OpUpdate); err != nil {
		return err
	}
	patch, err := toMap(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	existing, ok := m.docs[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.clock++
	for k, v := range patch {
		existing.data[k] = v
	}
	existing.version = m.clock
	ds := m.pendingLocked([]change{{collection, id}})
	m.mu.Unlock()
	run(ds)
	return nil
}

func (m *Memory) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := m.takeFailure(OpDelete); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.docs[collection], id)
	m.clock++
	ds := m.pendingLocked([]change{{collection, id}})
	m.mu.Unlock()
	run(ds)
	return nil
}

type memWrite struct {
	collection, id string
	data           map[string]interface{}
	merge          bool
}

type memTx struct {
	m      *Memory
	reads  map[change]int64
	writes []memWrite
}

func (t *memTx) Get(collection, id string) (Snapshot, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	var version int64
	if d, ok := t.m.docs[collection][id]; ok {
		version = d.version
	}
	t.reads[change{collection, id}] = version
	return t.m.snapshotLocked(collection, id), nil
}

func (t *memTx) Set(collection, id string, data interface{}, merge bool) error {
	doc, err := toMap(data)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, memWrite{collection: collection, id: id, data: doc, merge: merge})
	return nil
}

// MaxTransactionAttempts bounds the optimistic retries of RunTransaction.
const MaxTransactionAttempts = 25

func (m *Memory) RunTransaction(ctx context.Context, fn TxFunc) error {
	if err := m.takeFailure(OpTransaction); err != nil {
		return err
	}
	for attempt := 0; attempt < MaxTransactionAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.mu.Lock()
		m.attempts++
		m.mu.Unlock()

		tx := &memTx{m: m, reads: map[change]int64{}}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if ds, ok := m.commit(tx); ok {
			run(ds)
			return nil
		}
	}
	return ErrContention
}

func (m *Memory) commit(tx *memTx) ([]delivery, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c, version := range tx.reads {
		var current int64
		if d, ok := m.docs[c.collection][c.id]; ok {
			current = d.version
		}
		if current != version {
			return nil, false
		}
	}
	changes := make([]change, 0, len(tx.writes))
	for _, w := range tx.writes {
		m.writeLocked(w.collection, w.id, w.data, w.merge)
		changes = append(changes, change{w.collection, w.id})
	}
	return m.pendingLocked(changes), true
}

func (m *Memory) Close() error { return nil }
