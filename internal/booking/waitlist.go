package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/notify"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// Enqueue appends e to its slot's waiting list unless the user already
// has an active entry there, in which case that entry is returned and
// created is false.  The caller must hold the slot lock.
func Enqueue(ctx context.Context, tx repository.Tx, e model.WaitingEntry) (entry model.WaitingEntry, created bool, err error) {
	existing, err := tx.FindActiveWaitingEntry(ctx, e.SlotID, e.UserID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.WaitingEntry{}, false, err
	}
	e.IsExpired = false
	if err := tx.InsertWaitingEntry(ctx, &e); err != nil {
		return model.WaitingEntry{}, false, err
	}
	return e, true, nil
}

// DequeueNext removes and returns the oldest active entry of the slot.
// It must run in the same transaction as the ledger call it pairs with
// so that freed capacity is never visible unassigned.
func DequeueNext(ctx context.Context, tx repository.Tx, slotID uint64) (model.WaitingEntry, bool, error) {
	e, err := tx.NextWaitingEntryForUpdate(ctx, slotID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.WaitingEntry{}, false, nil
	}
	if err != nil {
		return model.WaitingEntry{}, false, err
	}
	if err := tx.DeleteWaitingEntry(ctx, e.ID); err != nil {
		return model.WaitingEntry{}, false, err
	}
	return e, true, nil
}

// ExpireStale expires every active entry whose slot starts before
// now+horizon and notifies its owner.  Entries already expired are
// skipped, so running it twice changes nothing the second time.
func (s *Service) ExpireStale(ctx context.Context, horizon time.Duration) (int, error) {
	entries, err := s.store.ListStaleWaitingEntries(ctx, s.clock.Now().Add(horizon))
	if err != nil {
		return 0, translate(err)
	}
	expired := 0
	for _, e := range entries {
		var changed bool
		err := s.inTx(ctx, func(tx repository.Tx, out *outbox) error {
			changed = false
			if _, err := tx.GetSlotForUpdate(ctx, e.SlotID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			ok, err := tx.ExpireWaitingEntry(ctx, e.ID)
			if err != nil || !ok {
				return err
			}
			changed = true
			out.add(notify.CategoryWaitlistExpiry, e.UserID, notify.Details{
				VenueName: s.venueName(ctx, tx, e.VenueID),
				StartsAt:  e.StartsAt,
				EndsAt:    e.EndsAt,
			})
			return nil
		})
		if err != nil {
			s.log.Errorf("expire waiting entry %d: %v", e.ID, err)
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}
