package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	CurrentNumber int64 `json:"currentNumber"`
}

func increment(ctx context.Context, s Store) (int64, error) {
	var next int64
	err := s.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		snap, err := tx.Get("store", "orderCounter")
		if err != nil {
			return err
		}
		next = 1001
		if snap.Exists() {
			var c counter
			if err := snap.DataTo(&c); err != nil {
				return err
			}
			next = c.CurrentNumber + 1
		}
		return tx.Set("store", "orderCounter", counter{CurrentNumber: next}, true)
	})
	return next, err
}

func TestMemory_WatchDocumentSeesMissingThenWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var seen []bool
	stop := m.WatchDocument(ctx, "store", "config", func(snap Snapshot, err error) {
		require.NoError(t, err)
		seen = append(seen, snap.Exists())
	})

	require.NoError(t, m.SetDocument(ctx, "store", "config", map[string]interface{}{"logoUrl": "a"}, true))
	stop()
	require.NoError(t, m.SetDocument(ctx, "store", "config", map[string]interface{}{"logoUrl": "b"}, true))

	assert.Equal(t, []bool{false, true}, seen)
}

func TestMemory_MergeKeepsOtherFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SetDocument(ctx, "c", "d", map[string]interface{}{
		"a": 1, "nested": map[string]interface{}{"x": 1, "y": 2},
	}, false))
	require.NoError(t, m.SetDocument(ctx, "c", "d", map[string]interface{}{
		"b": 2, "nested": map[string]interface{}{"y": 3},
	}, true))

	snap, err := m.GetDocument(ctx, "c", "d")
	require.NoError(t, err)
	var out struct {
		A      int            `json:"a"`
		B      int            `json:"b"`
		Nested map[string]int `json:"nested"`
	}
	require.NoError(t, snap.DataTo(&out))
	assert.Equal(t, 1, out.A)
	assert.Equal(t, 2, out.B)
	assert.Equal(t, map[string]int{"x": 1, "y": 3}, out.Nested)
}

func TestMemory_CreateRejectsExisting(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateDocument(ctx, "store", "banners", map[string]interface{}{"list": []interface{}{}}))
	assert.ErrorIs(t, m.CreateDocument(ctx, "store", "banners", map[string]interface{}{}), ErrAlreadyExists)
}

func TestMemory_GetAndUpdateMissing(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.GetDocument(ctx, "users", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.UpdateDocument(ctx, "orders", "x", map[string]interface{}{"status": "Enviado"}), ErrNotFound)
}

func TestMemory_CollectionListenerGetsIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var last []Snapshot
	stop := m.WatchCollection(ctx, "orders", func(snaps []Snapshot, err error) {
		require.NoError(t, err)
		last = snaps
	})
	defer stop()

	id, err := m.AddDocument(ctx, "orders", map[string]interface{}{"orderNumber": "BMB-1001"})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, id, last[0].ID())

	require.NoError(t, m.DeleteDocument(ctx, "orders", id))
	assert.Empty(t, last)
}

func TestMemory_TransactionRetriesOnInterleavedCommit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SetDocument(ctx, "store", "orderCounter", counter{CurrentNumber: 1500}, false))

	var inner int64
	var outer int64
	first := true
	err := m.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		snap, err := tx.Get("store", "orderCounter")
		require.NoError(t, err)
		var c counter
		require.NoError(t, snap.DataTo(&c))
		if first {
			first = false
			// Another checkout commits between our read and our write.
			inner, err = increment(ctx, m)
			require.NoError(t, err)
		}
		outer = c.CurrentNumber + 1
		return tx.Set("store", "orderCounter", counter{CurrentNumber: outer}, true)
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1501), inner)
	assert.Equal(t, int64(1502), outer)
	assert.Equal(t, 3, m.TransactionAttempts())
}

func TestMemory_TransactionGivesUpUnderConstantContention(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	calls := 0
	err := m.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		calls++
		if _, err := tx.Get("store", "orderCounter"); err != nil {
			return err
		}
		// Cada intento pierde contra otra escritura.
		require.NoError(t, m.SetDocument(ctx, "store", "orderCounter", counter{CurrentNumber: int64(calls)}, false))
		return tx.Set("store", "orderCounter", counter{CurrentNumber: -1}, true)
	})
	assert.ErrorIs(t, err, ErrContention)
	assert.Equal(t, MaxTransactionAttempts, calls)

	var c counter
	snap, err := m.GetDocument(ctx, "store", "orderCounter")
	require.NoError(t, err)
	require.NoError(t, snap.DataTo(&c))
	assert.Equal(t, int64(MaxTransactionAttempts), c.CurrentNumber)
}

func TestMemory_ConcurrentIncrementsAreUnique(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const workers = 20
	results := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := increment(ctx, m)
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int64]bool{}
	for n := range results {
		assert.False(t, seen[n], "duplicate order number %d", n)
		assert.Greater(t, n, int64(1000))
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func TestMemory_FailNext(t *testing.T) {
	m := NewMemory()
	boom := errors.New("unavailable")
	m.FailNext(OpSet, boom)
	ctx := context.Background()

	assert.ErrorIs(t, m.SetDocument(ctx, "a", "b", map[string]interface{}{}, true), boom)
	assert.NoError(t, m.SetDocument(ctx, "a", "b", map[string]interface{}{}, true))
}
