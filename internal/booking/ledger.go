package booking

import (
	"context"

	"github.com/iliyamo/venue-reservation/internal/repository"
)

// TryReserve takes one unit of the slot's capacity.  It locks the slot
// row for the rest of tx and reports false, without writing, when the
// slot is full.  remaining never goes below zero.
func TryReserve(ctx context.Context, tx repository.Tx, slotID uint64) (bool, error) {
	sl, err := tx.GetSlotForUpdate(ctx, slotID)
	if err != nil {
		return false, err
	}
	if sl.Remaining <= 0 {
		return false, nil
	}
	if err := tx.UpdateSlotRemaining(ctx, slotID, sl.Remaining-1); err != nil {
		return false, err
	}
	return true, nil
}

// Release gives one unit back to the slot, clamped to its capacity.
// Callers release at most once per reservation; the lifecycle manager
// guarantees that by only releasing on the transition into CANCELLED.
func Release(ctx context.Context, tx repository.Tx, slotID uint64) error {
	sl, err := tx.GetSlotForUpdate(ctx, slotID)
	if err != nil {
		return err
	}
	next := sl.Remaining + 1
	if next > sl.Capacity {
		next = sl.Capacity
	}
	if next == sl.Remaining {
		return nil
	}
	return tx.UpdateSlotRemaining(ctx, slotID, next)
}
