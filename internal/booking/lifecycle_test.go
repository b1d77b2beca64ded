package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/venue-reservation/internal/apperror"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/notify"
)

func TestCapacityOneScenario(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	u1 := f.book(t, alice, 10, 11)
	if u1.Reservation == nil || u1.Reservation.Status != model.StatusPending {
		t.Fatalf("alice outcome = %+v, want PENDING reservation", u1)
	}
	if sl := f.slot(t, 10, 11); sl.Remaining != 0 {
		t.Fatalf("remaining after alice = %d, want 0", sl.Remaining)
	}

	u2 := f.book(t, bob, 10, 11)
	if !u2.Waitlisted() {
		t.Fatalf("bob outcome = %+v, want waiting entry", u2)
	}

	res, err := f.svc.Cancel(ctx, alice, u1.Reservation.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if res.Reservation.Status != model.StatusCancelled || res.Reservation.CancelledAt == nil {
		t.Fatalf("cancelled reservation = %+v", res.Reservation)
	}
	if res.Promoted == nil || res.Promoted.UserID != bob.UserID || res.Promoted.Status != model.StatusPending {
		t.Fatalf("promoted = %+v, want PENDING reservation for bob", res.Promoted)
	}

	sl := f.slot(t, 10, 11)
	if sl.Remaining != 0 {
		t.Fatalf("final remaining = %d, want 0", sl.Remaining)
	}
	if n := f.activeOn(t, sl.ID); n != 1 {
		t.Fatalf("active reservations = %d, want 1", n)
	}
	if entries, _ := f.store.ListWaitingEntries(ctx, sl.ID); len(entries) != 0 {
		t.Fatalf("waiting entries = %d, want 0", len(entries))
	}
	f.assertConserved(t, sl)

	var cancelled, promoted bool
	for _, n := range f.sent.Sent() {
		if n.UserID == alice.UserID && n.Category == notify.CategoryCancellation {
			cancelled = true
		}
		if n.UserID == bob.UserID && n.Category == notify.CategoryPromotion {
			promoted = true
		}
	}
	if !cancelled || !promoted {
		t.Fatalf("notifications = %+v, want cancellation for alice and promotion for bob", f.sent.Sent())
	}
}

func TestNoOverbookingUnderConcurrency(t *testing.T) {
	const capacity, users = 5, 40
	f := newFixture(t, capacity)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved, waiting := 0, 0
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Create(ctx, CreateRequest{
				Actor:   model.Actor{UserID: uint64(100 + i), Role: model.RoleEmployee},
				VenueID: f.venue.ID, Start: at(10), End: at(11),
			})
			if err != nil {
				t.Errorf("user %d: %v", 100+i, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Outcomes[0].Reservation != nil {
				reserved++
			} else {
				waiting++
			}
		}()
	}
	wg.Wait()

	if reserved != capacity || waiting != users-capacity {
		t.Fatalf("reserved %d waiting %d, want %d and %d", reserved, waiting, capacity, users-capacity)
	}
	sl := f.slot(t, 10, 11)
	if n := f.activeOn(t, sl.ID); n > capacity {
		t.Fatalf("active reservations %d exceed capacity %d", n, capacity)
	}
	f.assertConserved(t, sl)
}

func TestConcurrentCancelsPromoteInOrder(t *testing.T) {
	const capacity = 3
	f := newFixture(t, capacity)
	ctx := context.Background()
	var holders []model.Reservation
	for i := 0; i < capacity; i++ {
		o := f.book(t, model.Actor{UserID: uint64(10 + i), Role: model.RoleEmployee}, 12, 13)
		holders = append(holders, *o.Reservation)
	}
	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Second)
		f.book(t, model.Actor{UserID: uint64(20 + i), Role: model.RoleEmployee}, 12, 13)
	}

	var wg sync.WaitGroup
	for _, r := range holders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Cancel(ctx, model.Actor{UserID: r.UserID}, r.ID); err != nil {
				t.Errorf("cancel %d: %v", r.ID, err)
			}
		}()
	}
	wg.Wait()

	sl := f.slot(t, 12, 13)
	f.assertConserved(t, sl)
	if sl.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", sl.Remaining)
	}
	entries, _ := f.store.ListWaitingEntries(ctx, sl.ID)
	if len(entries) != 2 || entries[0].UserID != 23 || entries[1].UserID != 24 {
		t.Fatalf("remaining queue = %+v, want users 23 and 24", entries)
	}
}

func TestFIFOFairness(t *testing.T) {
	f := newFixture(t, 1)
	held := f.book(t, alice, 12, 13)
	f.book(t, bob, 12, 13)
	f.clock.Advance(time.Millisecond)
	f.book(t, carol, 12, 13)

	res, err := f.svc.Cancel(context.Background(), alice, held.Reservation.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if res.Promoted == nil || res.Promoted.UserID != bob.UserID {
		t.Fatalf("promoted = %+v, want bob", res.Promoted)
	}
}

func TestStateMachine(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	r := f.book(t, alice, 10, 11).Reservation
	if _, err := f.svc.CheckIn(ctx, alice, r.ID); !errors.Is(err, apperror.ErrInvalidState) {
		t.Fatalf("check-in of PENDING: err = %v, want InvalidState", err)
	}
	got, err := f.svc.Confirm(ctx, alice, r.ID)
	if err != nil || got.Status != model.StatusConfirmed || got.ConfirmedAt == nil {
		t.Fatalf("Confirm = %+v, %v", got, err)
	}
	if _, err := f.svc.Confirm(ctx, alice, r.ID); !errors.Is(err, apperror.ErrInvalidState) {
		t.Fatalf("second confirm: err = %v, want InvalidState", err)
	}
	f.clock.Set(at(10).Add(-5 * time.Minute))
	got, err = f.svc.CheckIn(ctx, alice, r.ID)
	if err != nil || got.Status != model.StatusCheckedIn || got.CheckedInAt == nil {
		t.Fatalf("CheckIn = %+v, %v", got, err)
	}
	if _, err := f.svc.Confirm(ctx, alice, r.ID); !errors.Is(err, apperror.ErrInvalidState) {
		t.Fatalf("confirm CHECKED_IN: err = %v, want InvalidState", err)
	}
	if _, err := f.svc.CheckIn(ctx, alice, r.ID); !errors.Is(err, apperror.ErrInvalidState) {
		t.Fatalf("check-in twice: err = %v, want InvalidState", err)
	}

	f.clock.Set(monday)
	c := f.book(t, bob, 12, 13).Reservation
	if _, err := f.svc.Cancel(ctx, bob, c.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.svc.Confirm(ctx, bob, c.ID); !errors.Is(err, apperror.ErrInvalidState) {
		t.Fatalf("confirm CANCELLED: err = %v, want InvalidState", err)
	}
	if _, err := f.svc.Cancel(ctx, bob, c.ID); !errors.Is(err, apperror.ErrInvalidState) {
		t.Fatalf("cancel twice: err = %v, want InvalidState", err)
	}
	if sl := f.slot(t, 12, 13); sl.Remaining != 5 {
		t.Fatalf("double cancel changed capacity: remaining %d", sl.Remaining)
	}
}

func TestCancellationDeadline(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	deadline := at(12).Add(-f.svc.Config().CancellationDeadline)

	early := f.book(t, alice, 12, 13).Reservation
	late := f.book(t, bob, 12, 13).Reservation
	edge := f.book(t, carol, 12, 13).Reservation

	f.clock.Set(deadline.Add(-time.Second))
	if _, err := f.svc.Cancel(ctx, alice, early.ID); err != nil {
		t.Fatalf("cancel 1s before deadline: %v", err)
	}
	f.clock.Set(deadline)
	if _, err := f.svc.Cancel(ctx, carol, edge.ID); err != nil {
		t.Fatalf("cancel at deadline: %v", err)
	}
	f.clock.Set(deadline.Add(time.Second))
	if _, err := f.svc.Cancel(ctx, bob, late.ID); !errors.Is(err, apperror.ErrDeadlinePassed) {
		t.Fatalf("cancel 1s after deadline: err = %v, want DeadlinePassed", err)
	}
	if got, _ := f.store.GetReservation(ctx, late.ID); got.Status != model.StatusPending {
		t.Fatalf("late reservation status = %s, want PENDING", got.Status)
	}
}

func TestConfirmationDeadline(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	start := at(10).AddDate(0, 0, 3)
	res, err := f.svc.Create(ctx, CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r := res.Outcomes[0].Reservation
	f.clock.Advance(f.svc.Config().ConfirmationDeadline + time.Second)
	if _, err := f.svc.Confirm(ctx, alice, r.ID); !errors.Is(err, apperror.ErrDeadlinePassed) {
		t.Fatalf("late confirm: err = %v, want DeadlinePassed", err)
	}
	f.clock.Advance(-2 * time.Second)
	if _, err := f.svc.Confirm(ctx, alice, r.ID); err != nil {
		t.Fatalf("confirm 1s before deadline: %v", err)
	}
}

func TestCheckInWindow(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	window := f.svc.Config().CheckInWindow
	var ids []uint64
	for _, u := range []model.Actor{alice, bob, carol} {
		r := f.book(t, u, 10, 11).Reservation
		if _, err := f.svc.Confirm(ctx, u, r.ID); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		ids = append(ids, r.ID)
	}

	f.clock.Set(at(10).Add(-window - time.Second))
	if _, err := f.svc.CheckIn(ctx, alice, ids[0]); !errors.Is(err, apperror.ErrDeadlinePassed) {
		t.Fatalf("too early: err = %v, want DeadlinePassed", err)
	}
	f.clock.Set(at(10).Add(-window))
	if _, err := f.svc.CheckIn(ctx, alice, ids[0]); err != nil {
		t.Fatalf("window opens: %v", err)
	}
	f.clock.Set(at(10).Add(window))
	if _, err := f.svc.CheckIn(ctx, bob, ids[1]); err != nil {
		t.Fatalf("window closes: %v", err)
	}
	f.clock.Set(at(10).Add(window + time.Second))
	if _, err := f.svc.CheckIn(ctx, carol, ids[2]); !errors.Is(err, apperror.ErrDeadlinePassed) {
		t.Fatalf("too late: err = %v, want DeadlinePassed", err)
	}
}

func TestAuthorization(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	r := f.book(t, alice, 12, 13).Reservation

	if _, err := f.svc.Get(ctx, bob, r.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("bob Get: err = %v, want Unauthorized", err)
	}
	if _, err := f.svc.Cancel(ctx, bob, r.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("bob Cancel: err = %v, want Unauthorized", err)
	}
	if _, err := f.svc.Confirm(ctx, bob, r.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("bob Confirm: err = %v, want Unauthorized", err)
	}
	if _, err := f.svc.Cancel(ctx, admin, r.ID); err != nil {
		t.Fatalf("admin Cancel: %v", err)
	}
	if _, err := f.svc.Get(ctx, alice, 4242); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("missing reservation: err = %v, want NotFound", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	cases := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"inverted", CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: at(11), End: at(10)}, apperror.ErrValidation},
		{"past", CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: at(7), End: at(8)}, apperror.ErrValidation},
		{"unknown venue", CreateRequest{Actor: alice, VenueID: 777, Start: at(10), End: at(11)}, apperror.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := f.svc.Create(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestSubIntervalsShareTheEnvelopeSlot(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: at(10), End: at(10).Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := f.svc.Create(ctx, CreateRequest{Actor: bob, VenueID: f.venue.ID, Start: at(10).Add(30 * time.Minute), End: at(11)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ra, rb := a.Outcomes[0].Reservation, b.Outcomes[0].Reservation
	if ra.SlotID != rb.SlotID {
		t.Fatalf("slots differ: %d vs %d", ra.SlotID, rb.SlotID)
	}
	if !ra.SlotStartsAt.Equal(at(10)) || !rb.StartsAt.Equal(at(10).Add(30*time.Minute)) {
		t.Fatalf("intervals not preserved: %+v %+v", ra, rb)
	}
	if sl := f.slot(t, 10, 11); sl.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", sl.Remaining)
	}
}

func TestTransientErrorsAreRetried(t *testing.T) {
	f := newFixture(t, 1)
	flaky := &flakyStore{Store: f.store, failures: 2}
	svc := NewService(flaky, WithClock(f.clock), WithConfig(f.svc.Config()))

	res, err := svc.Create(context.Background(), CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: at(10), End: at(11)})
	if err != nil {
		t.Fatalf("Create with two transient failures: %v", err)
	}
	if res.Outcomes[0].Reservation == nil {
		t.Fatalf("outcome = %+v", res.Outcomes[0])
	}

	flaky.failures = 10
	_, err = svc.Create(context.Background(), CreateRequest{Actor: bob, VenueID: f.venue.ID, Start: at(12), End: at(13)})
	if !errors.Is(err, apperror.ErrTransientStore) || !apperror.IsRetryable(err) {
		t.Fatalf("exhausted retries: err = %v, want TransientStore", err)
	}
	if sl := f.slot(t, 10, 11); sl.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", sl.Remaining)
	}
}

func TestCheckInToken(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	r := f.book(t, alice, 10, 11).Reservation

	if _, _, err := f.svc.IssueCheckInToken(ctx, bob, r.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("token for non-owner: err = %v, want Unauthorized", err)
	}
	tok, exp, err := f.svc.IssueCheckInToken(ctx, alice, r.ID)
	if err != nil {
		t.Fatalf("IssueCheckInToken: %v", err)
	}
	if !exp.Equal(at(10).Add(f.svc.Config().CheckInWindow)) {
		t.Fatalf("expiry = %v", exp)
	}
	if _, err := f.svc.Confirm(ctx, alice, r.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	f.clock.Set(at(10))
	got, err := f.svc.CheckInWithToken(ctx, tok)
	if err != nil || got.Status != model.StatusCheckedIn {
		t.Fatalf("CheckInWithToken = %+v, %v", got, err)
	}
	if _, err := f.svc.CheckInWithToken(ctx, "garbage"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("garbage token: err = %v, want Unauthorized", err)
	}

	other := f.book(t, bob, 12, 13).Reservation
	f.svc.Confirm(ctx, bob, other.ID)
	tok2, _, _ := f.svc.IssueCheckInToken(ctx, bob, other.ID)
	f.clock.Set(at(12).Add(f.svc.Config().CheckInWindow + time.Second))
	if _, err := f.svc.CheckInWithToken(ctx, tok2); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expired token: err = %v, want Unauthorized", err)
	}
}

func TestRecurringCreatePartialSuccess(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	// Bob already holds Wednesday's slot, so that occurrence is waitlisted.
	wed := at(10).AddDate(0, 0, 2)
	if _, err := f.svc.Create(ctx, CreateRequest{Actor: bob, VenueID: f.venue.ID, Start: wed, End: wed.Add(time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Thursday is blocked.
	f.store.AddBlock(model.BlockedInterval{VenueID: f.venue.ID, Weekday: time.Thursday, Start: 9 * time.Hour, End: 12 * time.Hour})

	res, err := f.svc.Create(ctx, CreateRequest{
		Actor: alice, VenueID: f.venue.ID, Start: at(10), End: at(11),
		Recurrence: &Recurrence{Pattern: model.RecurDaily, Until: at(10).AddDate(0, 0, 4)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Series == nil || res.Series.ID == 0 {
		t.Fatalf("series not stored: %+v", res.Series)
	}
	if len(res.Outcomes) != 5 {
		t.Fatalf("outcomes = %d, want 5", len(res.Outcomes))
	}
	var booked, waiting, failed int
	for _, o := range res.Outcomes {
		switch {
		case o.Err != nil:
			failed++
			if !errors.Is(o.Err, apperror.ErrConflict) || o.Start.Weekday() != time.Thursday {
				t.Errorf("unexpected failure %v on %s", o.Err, o.Start.Weekday())
			}
		case o.Waitlisted():
			waiting++
		default:
			booked++
			if o.Reservation.SeriesID == nil || *o.Reservation.SeriesID != res.Series.ID {
				t.Errorf("reservation %d not tagged with series", o.Reservation.ID)
			}
		}
	}
	if booked != 3 || waiting != 1 || failed != 1 {
		t.Fatalf("booked %d waiting %d failed %d, want 3 1 1", booked, waiting, failed)
	}
}

func TestRecurringValidation(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	cases := []Recurrence{
		{Pattern: "YEARLY", Until: at(10).AddDate(0, 1, 0)},
		{Pattern: model.RecurDaily, Until: at(10).AddDate(0, 0, -1)},
		{Pattern: model.RecurDaily, Until: at(10).AddDate(3, 0, 0)},
		{Pattern: model.RecurMonthly, Until: at(10).AddDate(0, 3, 0), DayOfMonth: 40},
	}
	for i, rec := range cases {
		_, err := f.svc.Create(ctx, CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: at(10), End: at(11), Recurrence: &rec})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("case %d: err = %v, want Validation", i, err)
		}
	}
}

func TestVenueClosure(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	r1 := f.book(t, alice, 10, 11).Reservation
	f.book(t, bob, 10, 11)
	r2 := f.book(t, carol, 14, 15).Reservation
	tomorrow := at(10).AddDate(0, 0, 1)
	out, _ := f.svc.Create(ctx, CreateRequest{Actor: bob, VenueID: f.venue.ID, Start: tomorrow, End: tomorrow.Add(time.Hour)})
	keep := out.Outcomes[0].Reservation

	if _, err := f.svc.HandleVenueClosure(ctx, alice, ClosureRequest{VenueID: f.venue.ID, From: at(0), To: at(24), Status: model.VenueClosed}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("non-admin closure: err = %v, want Unauthorized", err)
	}
	if _, err := f.svc.HandleVenueClosure(ctx, admin, ClosureRequest{VenueID: f.venue.ID, From: at(0), To: at(24), Status: model.VenueOpen}); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("OPEN closure: err = %v, want Validation", err)
	}

	res, err := f.svc.HandleVenueClosure(ctx, admin, ClosureRequest{
		VenueID: f.venue.ID, From: midnight(monday), To: midnight(monday).AddDate(0, 0, 1),
		Status: model.VenueMaintenance, Reason: "floor repair",
	})
	if err != nil {
		t.Fatalf("HandleVenueClosure: %v", err)
	}
	if res.Cancelled != 2 || res.Expired != 1 || res.SlotsRemoved != 2 {
		t.Fatalf("result = %+v, want 2 cancelled 1 expired 2 removed", res)
	}
	for _, id := range []uint64{r1.ID, r2.ID} {
		got, _ := f.store.GetReservation(ctx, id)
		if got.Status != model.StatusCancelled {
			t.Fatalf("reservation %d status = %s, want CANCELLED", id, got.Status)
		}
	}
	if got, _ := f.store.GetReservation(ctx, keep.ID); got.Status != model.StatusPending {
		t.Fatalf("reservation outside the range was touched: %s", got.Status)
	}
	if _, err := f.store.FindSlot(ctx, f.venue.ID, at(10), at(11)); err == nil {
		t.Fatalf("closed slot still exists")
	}
	v, _ := f.store.GetVenue(ctx, f.venue.ID)
	if v.Status != model.VenueMaintenance {
		t.Fatalf("venue status = %s", v.Status)
	}
	if _, err := f.svc.Create(ctx, CreateRequest{Actor: carol, VenueID: f.venue.ID, Start: at(16), End: at(17)}); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("booking a closed venue: err = %v, want Conflict", err)
	}
	closures := 0
	for _, n := range f.sent.Sent() {
		if n.Category == notify.CategoryClosure {
			closures++
		}
	}
	if closures != 2 {
		t.Fatalf("closure notifications = %d, want 2", closures)
	}
}

func TestWaitingListAndAvailability(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.book(t, alice, 10, 11)
	f.book(t, bob, 10, 11)
	sl := f.slot(t, 10, 11)

	if _, err := f.svc.WaitingList(ctx, alice, sl.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("non-admin waiting list: err = %v", err)
	}
	entries, err := f.svc.WaitingList(ctx, admin, sl.ID)
	if err != nil || len(entries) != 1 || entries[0].UserID != bob.UserID {
		t.Fatalf("WaitingList = %+v, %v", entries, err)
	}
	if _, err := f.svc.WaitingList(ctx, admin, 9999); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("missing slot: err = %v", err)
	}

	av, err := f.svc.Availability(ctx, f.venue.ID, monday)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(av.Slots) != 1 || av.Slots[0].Remaining != 0 || av.Venue.Name != "Court A" {
		t.Fatalf("availability = %+v", av)
	}
}

func TestOverlappingSlotsShareCapacity(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.book(t, alice, 10, 11)

	_, err := f.svc.Create(ctx, CreateRequest{Actor: bob, VenueID: f.venue.ID, Start: at(10), End: at(12)})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("two-hour request over a full hour: err = %v, want Conflict", err)
	}
	if _, err := f.store.FindSlot(ctx, f.venue.ID, at(10), at(12)); err == nil {
		t.Fatalf("rejected request left its slot behind")
	}

	long := f.book(t, bob, 12, 14)
	if long.Reservation == nil {
		t.Fatalf("two-hour booking on free hours = %+v, want reservation", long)
	}
	if _, err := f.svc.Create(ctx, CreateRequest{Actor: carol, VenueID: f.venue.ID, Start: at(13), End: at(14)}); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("hour inside a full two-hour slot: err = %v, want Conflict", err)
	}
	if o := f.book(t, carol, 14, 15); o.Reservation == nil {
		t.Fatalf("adjacent hour = %+v, want reservation", o)
	}
}

func TestOverlappingHoldersAreSummed(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	f.book(t, alice, 10, 11)
	if o := f.book(t, bob, 10, 12); o.Reservation == nil {
		t.Fatalf("bob = %+v, want reservation", o)
	}
	// 10:00 now has one holder on each slot; a third would exceed 2.
	if _, err := f.svc.Create(ctx, CreateRequest{Actor: carol, VenueID: f.venue.ID, Start: at(10), End: at(11)}); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("third holder at 10:00: err = %v, want Conflict", err)
	}
	if o := f.book(t, carol, 11, 12); o.Reservation == nil {
		t.Fatalf("11:00 has one holder, carol = %+v, want reservation", o)
	}
}

func TestQuotaHoldsUnderConcurrency(t *testing.T) {
	f := newFixture(t, 5)
	f.store.AddRule(model.BookingRule{VenueID: f.venue.ID, Role: model.RoleEmployee, MaxPerDay: 1})
	ctx := context.Background()

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: at(10 + i), End: at(11 + i)})
		}()
	}
	wg.Wait()

	booked := 0
	for i, err := range errs {
		switch {
		case err == nil:
			booked++
		case !errors.Is(err, apperror.ErrQuotaExceeded):
			t.Fatalf("create %d: err = %v, want QuotaExceeded", i, err)
		}
	}
	if booked != 1 {
		t.Fatalf("booked %d reservations on one day, want 1", booked)
	}
}

func TestReopenVenue(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	if _, err := f.svc.HandleVenueClosure(ctx, admin, ClosureRequest{
		VenueID: f.venue.ID, From: at(10), To: at(12), Status: model.VenueClosed,
	}); err != nil {
		t.Fatalf("HandleVenueClosure: %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateRequest{Actor: alice, VenueID: f.venue.ID, Start: at(15), End: at(16)}); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("booking outside the closed range before reopen: err = %v, want Conflict", err)
	}

	if _, err := f.svc.ReopenVenue(ctx, alice, f.venue.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("non-admin reopen: err = %v, want Unauthorized", err)
	}
	if _, err := f.svc.ReopenVenue(ctx, admin, 777); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("unknown venue: err = %v, want NotFound", err)
	}
	v, err := f.svc.ReopenVenue(ctx, admin, f.venue.ID)
	if err != nil || v.Status != model.VenueOpen {
		t.Fatalf("ReopenVenue = %+v, %v; want OPEN", v, err)
	}
	if o := f.book(t, alice, 15, 16); o.Reservation == nil {
		t.Fatalf("booking after reopen = %+v, want reservation", o)
	}
	if v, err := f.svc.ReopenVenue(ctx, admin, f.venue.ID); err != nil || v.Status != model.VenueOpen {
		t.Fatalf("second reopen = %+v, %v", v, err)
	}
}
