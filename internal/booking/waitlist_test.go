package booking

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/venue-reservation/internal/notify"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

func TestEnqueueIsIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	f.book(t, alice, 10, 11)

	first := f.book(t, bob, 10, 11)
	second := f.book(t, bob, 10, 11)
	if !first.Waitlisted() || !second.Waitlisted() {
		t.Fatalf("both requests should be waitlisted: %+v %+v", first, second)
	}
	if first.Waiting.ID != second.Waiting.ID {
		t.Fatalf("entry ids differ: %d vs %d", first.Waiting.ID, second.Waiting.ID)
	}
	entries, _ := f.store.ListWaitingEntries(context.Background(), f.slot(t, 10, 11).ID)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if n := len(f.sent.ForUser(bob.UserID)); n != 1 {
		t.Fatalf("bob got %d waitlist notifications, want 1", n)
	}
}

func TestDequeueNextIsFIFO(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.book(t, alice, 10, 11)
	f.book(t, carol, 10, 11)
	f.clock.Advance(time.Second)
	f.book(t, bob, 10, 11)
	slotID := f.slot(t, 10, 11).ID

	var order []uint64
	for i := 0; i < 3; i++ {
		_ = f.store.WithTx(ctx, func(tx repository.Tx) error {
			e, ok, err := DequeueNext(ctx, tx, slotID)
			if err != nil {
				return err
			}
			if ok {
				order = append(order, e.UserID)
			}
			return nil
		})
	}
	if len(order) != 2 || order[0] != carol.UserID || order[1] != bob.UserID {
		t.Fatalf("dequeue order = %v, want [carol bob]", order)
	}
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.book(t, alice, 10, 11)
	f.book(t, bob, 10, 11)
	f.book(t, alice, 15, 16)
	f.book(t, carol, 15, 16)

	// 09:30: only the 10:00 slot is inside the one hour horizon.
	f.clock.Set(at(9).Add(30 * time.Minute))
	n, err := f.svc.ExpireWaiting(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ExpireWaiting = %d, %v; want 1", n, err)
	}
	n, err = f.svc.ExpireWaiting(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second ExpireWaiting = %d, %v; want 0", n, err)
	}
	if entries, _ := f.store.ListWaitingEntries(ctx, f.slot(t, 10, 11).ID); len(entries) != 0 {
		t.Fatalf("10:00 entries = %d, want 0", len(entries))
	}
	if entries, _ := f.store.ListWaitingEntries(ctx, f.slot(t, 15, 16).ID); len(entries) != 1 {
		t.Fatalf("15:00 entries = %d, want 1", len(entries))
	}
	var expiry int
	for _, n := range f.sent.ForUser(bob.UserID) {
		if n.Category == notify.CategoryWaitlistExpiry {
			expiry++
		}
	}
	if expiry != 1 {
		t.Fatalf("bob expiry notifications = %d, want 1", expiry)
	}
}

func TestExpiredEntryIsNotPromoted(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	held := f.book(t, alice, 12, 13)
	f.book(t, bob, 12, 13)
	f.clock.Set(at(11).Add(time.Minute))
	if _, err := f.svc.ExpireWaiting(ctx); err != nil {
		t.Fatalf("ExpireWaiting: %v", err)
	}
	// Cancellation deadline is two hours; move it so cancel is allowed.
	cfg := f.svc.cfg
	cfg.CancellationDeadline = 30 * time.Minute
	f.svc.cfg = cfg
	res, err := f.svc.Cancel(ctx, alice, held.Reservation.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if res.Promoted != nil {
		t.Fatalf("expired entry was promoted: %+v", res.Promoted)
	}
	if sl := f.slot(t, 12, 13); sl.Remaining != 1 {
		t.Fatalf("remaining = %d, want 1", sl.Remaining)
	}
}
