package booking

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/venue-reservation/internal/clock"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/notify"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/repository/memstore"
	"github.com/iliyamo/venue-reservation/internal/token"
)

// monday is 08:00 on a Monday; most tests book 10:00-11:00 that day.
// With the default 2h cancellation deadline the clock then sits exactly
// on the 10:00 deadline, so tests that advance time before cancelling
// book 12:00.
var monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

var (
	alice = model.Actor{UserID: 1, Role: model.RoleEmployee}
	bob   = model.Actor{UserID: 2, Role: model.RoleEmployee}
	carol = model.Actor{UserID: 3, Role: model.RoleEmployee}
	admin = model.Actor{UserID: 99, Role: model.RoleAdmin}
)

type fixture struct {
	svc   *Service
	store *memstore.Store
	clock *clock.FakeClock
	sent  *notify.Recorder
	venue model.Venue
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	st := memstore.New(2 * time.Second)
	clk := clock.Fake(monday)
	rec := &notify.Recorder{}
	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	svc := NewService(st,
		WithClock(clk),
		WithSink(rec),
		WithConfig(cfg),
		WithCheckInTokens(token.NewCheckInSigner([]byte("test-secret"), clk)),
	)
	v := st.AddVenue(model.Venue{Name: "Court A", TotalCapacity: capacity, DefaultCapacity: capacity, OpenHour: 9, CloseHour: 22})
	return &fixture{svc: svc, store: st, clock: clk, sent: rec, venue: v}
}

func at(hour int) time.Time { return monday.Add(time.Duration(hour-8) * time.Hour) }

func (f *fixture) book(t *testing.T, actor model.Actor, startHour, endHour int) Outcome {
	t.Helper()
	res, err := f.svc.Create(context.Background(), CreateRequest{
		Actor: actor, VenueID: f.venue.ID, Start: at(startHour), End: at(endHour),
	})
	if err != nil {
		t.Fatalf("Create for user %d: %v", actor.UserID, err)
	}
	if len(res.Outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(res.Outcomes))
	}
	return res.Outcomes[0]
}

func (f *fixture) slot(t *testing.T, startHour, endHour int) model.TimeSlot {
	t.Helper()
	sl, err := f.store.FindSlot(context.Background(), f.venue.ID, at(startHour), at(endHour))
	if err != nil {
		t.Fatalf("FindSlot: %v", err)
	}
	return sl
}

// activeOn counts non-cancelled reservations bound to slotID.
func (f *fixture) activeOn(t *testing.T, slotID uint64) int {
	t.Helper()
	rs, err := f.store.ListReservationsBySlot(context.Background(), slotID)
	if err != nil {
		t.Fatalf("ListReservationsBySlot: %v", err)
	}
	n := 0
	for _, r := range rs {
		if r.Status != model.StatusCancelled {
			n++
		}
	}
	return n
}

func (f *fixture) assertConserved(t *testing.T, sl model.TimeSlot) {
	t.Helper()
	cur, err := f.store.GetSlot(context.Background(), sl.ID)
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if got := cur.Remaining + f.activeOn(t, sl.ID); got != cur.Capacity {
		t.Fatalf("remaining %d + active %d = %d, want capacity %d", cur.Remaining, f.activeOn(t, sl.ID), got, cur.Capacity)
	}
	if cur.Remaining < 0 || cur.Remaining > cur.Capacity {
		t.Fatalf("remaining %d outside [0, %d]", cur.Remaining, cur.Capacity)
	}
}

// flakyStore fails the first n transactions with a lock timeout.
type flakyStore struct {
	repository.Store
	failures int
	calls    int
}

func (s *flakyStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return repository.ErrLockTimeout
	}
	return s.Store.WithTx(ctx, fn)
}
