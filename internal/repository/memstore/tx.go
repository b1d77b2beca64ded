package memstore

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// tx is one unit of work against a Store.  held tracks the row locks it
// owns; locks are reentrant within the same tx.
type tx struct {
	store *Store
	held  map[string]chan struct{}
	undo  []func()
}

var _ repository.Tx = (*tx)(nil)

func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	sem := t.store.locks.sem(key)
	timer := time.NewTimer(t.store.lockWait)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		t.held[key] = sem
		return nil
	case <-timer.C:
		return repository.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lockFresh takes the lock of a row created by this tx.  The caller
// holds store.mu so nobody else can have seen the row yet.
func (t *tx) lockFresh(key string) {
	sem := t.store.locks.sem(key)
	sem <- struct{}{}
	t.held[key] = sem
}

func (t *tx) release() {
	for key, sem := range t.held {
		<-sem
		delete(t.held, key)
	}
}

func (t *tx) commit() {
	t.undo = nil
	t.release()
}

func (t *tx) rollback() {
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	t.release()
}

// ---- Queries delegate to the Store ----

func (t *tx) GetVenue(ctx context.Context, id uint64) (model.Venue, error) {
	return t.store.GetVenue(ctx, id)
}

func (t *tx) ListOpenVenues(ctx context.Context) ([]model.Venue, error) {
	return t.store.ListOpenVenues(ctx)
}

func (t *tx) GetSlot(ctx context.Context, id uint64) (model.TimeSlot, error) {
	return t.store.GetSlot(ctx, id)
}

func (t *tx) FindSlot(ctx context.Context, venueID uint64, start, end time.Time) (model.TimeSlot, error) {
	return t.store.FindSlot(ctx, venueID, start, end)
}

func (t *tx) ListSlotsOverlapping(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	return t.store.ListSlotsOverlapping(ctx, venueID, from, to)
}

func (t *tx) ListBlockedIntervals(ctx context.Context, venueID uint64, weekday time.Weekday) ([]model.BlockedInterval, error) {
	return t.store.ListBlockedIntervals(ctx, venueID, weekday)
}

func (t *tx) GetBookingRule(ctx context.Context, venueID uint64, role model.Role) (model.BookingRule, error) {
	return t.store.GetBookingRule(ctx, venueID, role)
}

func (t *tx) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	return t.store.GetReservation(ctx, id)
}

func (t *tx) CountActiveReservations(ctx context.Context, userID, venueID uint64, from, to time.Time) (int, error) {
	return t.store.CountActiveReservations(ctx, userID, venueID, from, to)
}

func (t *tx) ListReservationsBySlot(ctx context.Context, slotID uint64) ([]model.Reservation, error) {
	return t.store.ListReservationsBySlot(ctx, slotID)
}

func (t *tx) ListReservationsStartingBetween(ctx context.Context, status model.ReservationStatus, from, to time.Time) ([]model.Reservation, error) {
	return t.store.ListReservationsStartingBetween(ctx, status, from, to)
}

func (t *tx) ListWaitingEntries(ctx context.Context, slotID uint64) ([]model.WaitingEntry, error) {
	return t.store.ListWaitingEntries(ctx, slotID)
}

func (t *tx) ListStaleWaitingEntries(ctx context.Context, before time.Time) ([]model.WaitingEntry, error) {
	return t.store.ListStaleWaitingEntries(ctx, before)
}

// ---- slots ----

func (t *tx) GetSlotForUpdate(ctx context.Context, id uint64) (model.TimeSlot, error) {
	if err := t.lock(ctx, slotKey(id)); err != nil {
		return model.TimeSlot{}, err
	}
	return t.store.GetSlot(ctx, id)
}

func (t *tx) FindOrCreateSlotForUpdate(ctx context.Context, venueID uint64, start, end time.Time, capacity int) (model.TimeSlot, error) {
	s := t.store
	start, end = start.UTC(), end.UTC()
	for {
		s.mu.Lock()
		existing, ok := s.findSlot(venueID, start, end)
		if !ok {
			sl := model.TimeSlot{
				ID:        s.newID(),
				VenueID:   venueID,
				StartsAt:  start,
				EndsAt:    end,
				Capacity:  capacity,
				Remaining: capacity,
			}
			s.slots[sl.ID] = sl
			t.undo = append(t.undo, func() { delete(s.slots, sl.ID) })
			t.lockFresh(slotKey(sl.ID))
			s.mu.Unlock()
			return sl, nil
		}
		s.mu.Unlock()
		sl, err := t.GetSlotForUpdate(ctx, existing.ID)
		if err == nil {
			return sl, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return model.TimeSlot{}, err
		}
		// Deleted or rolled back while we waited for the lock; the
		// key is free again.
	}
}

func (t *tx) EnsureSlot(_ context.Context, venueID uint64, start, end time.Time, capacity int) (bool, error) {
	s := t.store
	start, end = start.UTC(), end.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findSlot(venueID, start, end); ok {
		return false, nil
	}
	sl := model.TimeSlot{ID: s.newID(), VenueID: venueID, StartsAt: start, EndsAt: end, Capacity: capacity, Remaining: capacity}
	s.slots[sl.ID] = sl
	t.undo = append(t.undo, func() { delete(s.slots, sl.ID) })
	return true, nil
}

func (t *tx) ListSlotsForUpdate(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	return t.lockSlotsWhere(ctx, func(sl model.TimeSlot) bool {
		return sl.VenueID == venueID && !sl.StartsAt.Before(from) && sl.StartsAt.Before(to)
	})
}

func (t *tx) ListSlotsOverlappingForUpdate(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	return t.lockSlotsWhere(ctx, func(sl model.TimeSlot) bool {
		return sl.VenueID == venueID && sl.StartsAt.Before(to) && sl.EndsAt.After(from)
	})
}

func (t *tx) lockSlotsWhere(ctx context.Context, match func(model.TimeSlot) bool) ([]model.TimeSlot, error) {
	s := t.store
	s.mu.Lock()
	candidates := s.slotsWhere(match)
	s.mu.Unlock()
	// Lock in id order, as the SQL store does.
	ids := make([]uint64, 0, len(candidates))
	for _, sl := range candidates {
		ids = append(ids, sl.ID)
	}
	sortIDs(ids)
	out := make([]model.TimeSlot, 0, len(ids))
	for _, id := range ids {
		if err := t.lock(ctx, slotKey(id)); err != nil {
			return nil, err
		}
		sl, err := s.GetSlot(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, sl)
	}
	return out, nil
}

func (t *tx) UpdateSlotRemaining(_ context.Context, slotID uint64, remaining int) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	prev := sl
	sl.Remaining = remaining
	s.slots[slotID] = sl
	t.undo = append(t.undo, func() { s.slots[slotID] = prev })
	return nil
}

func (t *tx) DeleteSlots(_ context.Context, ids []uint64) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		sl, ok := s.slots[id]
		if !ok {
			continue
		}
		delete(s.slots, id)
		t.undo = append(t.undo, func() { s.slots[id] = sl })
	}
	return nil
}

// ---- reservations ----

func (t *tx) GetReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	if err := t.lock(ctx, reservationKey(id)); err != nil {
		return model.Reservation{}, err
	}
	return t.store.GetReservation(ctx, id)
}

func (t *tx) InsertReservation(_ context.Context, r *model.Reservation) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.newID()
	s.reservations[r.ID] = *r
	id := r.ID
	t.undo = append(t.undo, func() { delete(s.reservations, id) })
	t.lockFresh(reservationKey(id))
	return nil
}

func (t *tx) UpdateReservation(_ context.Context, r model.Reservation) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.reservations[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	s.reservations[r.ID] = r
	t.undo = append(t.undo, func() { s.reservations[r.ID] = prev })
	return nil
}

// ---- waiting list ----

func (t *tx) FindActiveWaitingEntry(_ context.Context, slotID, userID uint64) (model.WaitingEntry, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.activeWaiting(slotID) {
		if e.UserID == userID {
			return e, nil
		}
	}
	return model.WaitingEntry{}, repository.ErrNotFound
}

func (t *tx) InsertWaitingEntry(_ context.Context, e *model.WaitingEntry) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.activeWaiting(e.SlotID) {
		if other.UserID == e.UserID {
			// Same outcome as the active_key unique index.
			return errDuplicateWaiting
		}
	}
	e.ID = s.newID()
	s.waiting[e.ID] = *e
	id := e.ID
	t.undo = append(t.undo, func() { delete(s.waiting, id) })
	t.lockFresh(waitingKey(id))
	return nil
}

func (t *tx) NextWaitingEntryForUpdate(ctx context.Context, slotID uint64) (model.WaitingEntry, error) {
	s := t.store
	for {
		s.mu.Lock()
		active := s.activeWaiting(slotID)
		s.mu.Unlock()
		if len(active) == 0 {
			return model.WaitingEntry{}, repository.ErrNotFound
		}
		head := active[0]
		if err := t.lock(ctx, waitingKey(head.ID)); err != nil {
			return model.WaitingEntry{}, err
		}
		s.mu.Lock()
		e, ok := s.waiting[head.ID]
		s.mu.Unlock()
		if ok && !e.IsExpired {
			return e, nil
		}
		// The head was consumed while we waited; try the next one.
	}
}

func (t *tx) DeleteWaitingEntry(_ context.Context, id uint64) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.waiting[id]
	if !ok {
		return nil
	}
	delete(s.waiting, id)
	t.undo = append(t.undo, func() { s.waiting[id] = e })
	return nil
}

func (t *tx) ExpireWaitingEntry(ctx context.Context, id uint64) (bool, error) {
	if err := t.lock(ctx, waitingKey(id)); err != nil {
		return false, err
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.waiting[id]
	if !ok || e.IsExpired {
		return false, nil
	}
	prev := e
	e.IsExpired = true
	s.waiting[id] = e
	t.undo = append(t.undo, func() { s.waiting[id] = prev })
	return true, nil
}

// ---- series and venues ----

func (t *tx) InsertSeries(_ context.Context, rs *model.RecurringSeries) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rs.ID = s.newID()
	s.series[rs.ID] = *rs
	id := rs.ID
	t.undo = append(t.undo, func() { delete(s.series, id) })
	return nil
}

func (t *tx) LockQuota(ctx context.Context, userID, venueID uint64) error {
	return t.lock(ctx, quotaKey(userID, venueID))
}

func (t *tx) SetVenueStatus(_ context.Context, venueID uint64, status model.VenueStatus) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[venueID]
	if !ok {
		return repository.ErrNotFound
	}
	prev := v
	v.Status = status
	s.venues[venueID] = v
	t.undo = append(t.undo, func() { s.venues[venueID] = prev })
	return nil
}
