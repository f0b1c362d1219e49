package orders

import (
	"context"
	"fmt"

	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/models"
)

// NextNumber increments the order counter inside a transaction and returns the new value.
// A missing counter starts from base, so the first order gets base+1.
func NextNumber(ctx context.Context, store docstore.Store, base int64) (int64, error) {
	var next int64
	err := store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		snap, err := tx.Get(models.StoreCollection, models.OrderCounterDoc)
		if err != nil {
			return err
		}
		current := base
		if snap.Exists() {
			var c models.OrderCounter
			if err := snap.DataTo(&c); err != nil {
				return fmt.Errorf("decode order counter: %w", err)
			}
			current = c.CurrentNumber
		}
		next = current + 1
		return tx.Set(models.StoreCollection, models.OrderCounterDoc, models.OrderCounter{CurrentNumber: next}, true)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// FormatNumber joins prefix and number: BMB-1001.
func FormatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%d", prefix, n)
}
