// Package memstore is an in-process implementation of repository.Store.
// It mirrors the locking contract of the MySQL store: ForUpdate methods
// take an exclusive per-row lock held until commit or rollback, and a
// lock that cannot be obtained within the configured wait fails with
// repository.ErrLockTimeout.  Rollback is implemented with an undo log.
//
// Plain reads are not isolated from other transactions' uncommitted
// writes.  The booking core never relies on a plain read for a decision
// it does not re-check under a lock, so this is enough for tests and
// local runs.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// Store holds all rows in memory.
type Store struct {
	mu       sync.Mutex
	locks    lockTable
	lockWait time.Duration
	nextID   uint64

	venues       map[uint64]model.Venue
	slots        map[uint64]model.TimeSlot
	reservations map[uint64]model.Reservation
	waiting      map[uint64]model.WaitingEntry
	series       map[uint64]model.RecurringSeries
	rules        map[ruleKey]model.BookingRule
	blocks       []model.BlockedInterval
}

type ruleKey struct {
	venueID uint64
	role    model.Role
}

// New returns an empty Store.  lockWait bounds row lock acquisition.
func New(lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	return &Store{
		locks:        lockTable{rows: map[string]chan struct{}{}},
		lockWait:     lockWait,
		venues:       map[uint64]model.Venue{},
		slots:        map[uint64]model.TimeSlot{},
		reservations: map[uint64]model.Reservation{},
		waiting:      map[uint64]model.WaitingEntry{},
		series:       map[uint64]model.RecurringSeries{},
		rules:        map[ruleKey]model.BookingRule{},
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) newID() uint64 {
	s.nextID++
	return s.nextID
}

// AddVenue seeds a venue and returns it with its id set.
func (s *Store) AddVenue(v model.Venue) model.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.newID()
	} else if v.ID > s.nextID {
		s.nextID = v.ID
	}
	if v.Status == "" {
		v.Status = model.VenueOpen
	}
	s.venues[v.ID] = v
	return v
}

// AddRule seeds a booking rule.
func (s *Store) AddRule(r model.BookingRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.newID()
	}
	s.rules[ruleKey{r.VenueID, r.Role}] = r
}

// AddBlock seeds an administrator block.
func (s *Store) AddBlock(b model.BlockedInterval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.newID()
	}
	s.blocks = append(s.blocks, b)
}

// WithTx runs fn in a transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &tx{store: s, held: map[string]chan struct{}{}}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
	}()
	if err := fn(t); err != nil {
		t.rollback()
		return err
	}
	t.commit()
	return nil
}

// lockTable hands out one binary semaphore per row key.
type lockTable struct {
	mu   sync.Mutex
	rows map[string]chan struct{}
}

func (l *lockTable) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.rows[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.rows[key] = ch
	}
	return ch
}

func slotKey(id uint64) string        { return fmt.Sprintf("slot:%d", id) }
func reservationKey(id uint64) string { return fmt.Sprintf("reservation:%d", id) }
func waitingKey(id uint64) string     { return fmt.Sprintf("waiting:%d", id) }

func quotaKey(userID, venueID uint64) string { return fmt.Sprintf("quota:%d:%d", userID, venueID) }

// ---- reads shared by Store and tx; callers hold s.mu ----

func (s *Store) getVenue(id uint64) (model.Venue, error) {
	v, ok := s.venues[id]
	if !ok {
		return model.Venue{}, repository.ErrNotFound
	}
	return v, nil
}

func (s *Store) listOpenVenues() []model.Venue {
	var out []model.Venue
	for _, v := range s.venues {
		if v.Status == model.VenueOpen {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) getSlot(id uint64) (model.TimeSlot, error) {
	sl, ok := s.slots[id]
	if !ok {
		return model.TimeSlot{}, repository.ErrNotFound
	}
	return sl, nil
}

func (s *Store) findSlot(venueID uint64, start, end time.Time) (model.TimeSlot, bool) {
	for _, sl := range s.slots {
		if sl.VenueID == venueID && sl.StartsAt.Equal(start) && sl.EndsAt.Equal(end) {
			return sl, true
		}
	}
	return model.TimeSlot{}, false
}

func (s *Store) slotsWhere(keep func(model.TimeSlot) bool) []model.TimeSlot {
	var out []model.TimeSlot
	for _, sl := range s.slots {
		if keep(sl) {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		if !out[i].EndsAt.Equal(out[j].EndsAt) {
			return out[i].EndsAt.Before(out[j].EndsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) reservationsWhere(keep func(model.Reservation) bool) []model.Reservation {
	var out []model.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SlotStartsAt.Equal(out[j].SlotStartsAt) {
			return out[i].SlotStartsAt.Before(out[j].SlotStartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) activeWaiting(slotID uint64) []model.WaitingEntry {
	var out []model.WaitingEntry
	for _, e := range s.waiting {
		if e.SlotID == slotID && !e.IsExpired {
			out = append(out, e)
		}
	}
	sortFIFO(out)
	return out
}

func sortFIFO(entries []model.WaitingEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

// ---- repository.Queries on Store ----

func (s *Store) GetVenue(_ context.Context, id uint64) (model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getVenue(id)
}

func (s *Store) ListOpenVenues(_ context.Context) ([]model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listOpenVenues(), nil
}

func (s *Store) GetSlot(_ context.Context, id uint64) (model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSlot(id)
}

func (s *Store) FindSlot(_ context.Context, venueID uint64, start, end time.Time) (model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.findSlot(venueID, start.UTC(), end.UTC())
	if !ok {
		return model.TimeSlot{}, repository.ErrNotFound
	}
	return sl, nil
}

func (s *Store) ListSlotsOverlapping(_ context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotsWhere(func(sl model.TimeSlot) bool {
		return sl.VenueID == venueID && sl.StartsAt.Before(to) && sl.EndsAt.After(from)
	}), nil
}

func (s *Store) ListBlockedIntervals(_ context.Context, venueID uint64, weekday time.Weekday) ([]model.BlockedInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BlockedInterval
	for _, b := range s.blocks {
		if b.VenueID == venueID && b.Weekday == weekday {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (s *Store) GetBookingRule(_ context.Context, venueID uint64, role model.Role) (model.BookingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[ruleKey{venueID, role}]
	if !ok {
		return model.BookingRule{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *Store) GetReservation(_ context.Context, id uint64) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *Store) CountActiveReservations(_ context.Context, userID, venueID uint64, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.UserID == userID && r.VenueID == venueID && r.Status != model.StatusCancelled &&
			!r.StartsAt.Before(from) && r.StartsAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListReservationsBySlot(_ context.Context, slotID uint64) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservationsWhere(func(r model.Reservation) bool { return r.SlotID == slotID }), nil
}

func (s *Store) ListReservationsStartingBetween(_ context.Context, status model.ReservationStatus, from, to time.Time) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservationsWhere(func(r model.Reservation) bool {
		return r.Status == status && !r.SlotStartsAt.Before(from) && !r.SlotStartsAt.After(to)
	}), nil
}

func (s *Store) ListWaitingEntries(_ context.Context, slotID uint64) ([]model.WaitingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeWaiting(slotID), nil
}

func (s *Store) ListStaleWaitingEntries(_ context.Context, before time.Time) ([]model.WaitingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type staleEntry struct {
		entry     model.WaitingEntry
		slotStart time.Time
	}
	var stale []staleEntry
	for _, e := range s.waiting {
		if e.IsExpired {
			continue
		}
		start := e.StartsAt
		if sl, ok := s.slots[e.SlotID]; ok {
			start = sl.StartsAt
		}
		if start.Before(before) {
			stale = append(stale, staleEntry{e, start})
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		if !stale[i].slotStart.Equal(stale[j].slotStart) {
			return stale[i].slotStart.Before(stale[j].slotStart)
		}
		if !stale[i].entry.CreatedAt.Equal(stale[j].entry.CreatedAt) {
			return stale[i].entry.CreatedAt.Before(stale[j].entry.CreatedAt)
		}
		return stale[i].entry.ID < stale[j].entry.ID
	})
	out := make([]model.WaitingEntry, 0, len(stale))
	for _, st := range stale {
		out = append(out, st.entry)
	}
	return out, nil
}

var errDuplicateWaiting = errors.New("memstore: duplicate active waiting entry")

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
