package notify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
)

func TestBuildRendersTemplates(t *testing.T) {
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	d := Details{ReservationID: 12, VenueName: "Court A", StartsAt: start, EndsAt: start.Add(time.Hour)}
	cats := []Category{
		CategoryConfirmation, CategoryCancellation, CategoryPromotion,
		CategoryWaitlisted, CategoryWaitlistExpiry, CategoryReminder, CategoryClosure,
	}
	for _, c := range cats {
		n, err := Build(c, 5, d)
		if err != nil {
			t.Fatalf("Build(%s): %v", c, err)
		}
		if n.UserID != 5 || n.Category != c || n.Title == "" {
			t.Fatalf("Build(%s) = %+v", c, n)
		}
		if !strings.Contains(n.Body, "Court A") {
			t.Errorf("Build(%s) body %q lacks venue name", c, n.Body)
		}
	}
	n, _ := Build(CategoryCancellation, 5, Details{ReservationID: 1, VenueName: "X", StartsAt: start, Reason: "maintenance"})
	if !strings.Contains(n.Body, "Reason: maintenance.") {
		t.Fatalf("cancellation body %q lacks reason", n.Body)
	}
	if _, err := Build("BOGUS", 1, d); err == nil {
		t.Fatalf("unknown category rendered")
	}
}

func TestAsyncSwallowsFailures(t *testing.T) {
	var calls atomic.Int32
	failing := SinkFunc(func(context.Context, Notification) error {
		calls.Add(1)
		return errors.New("broker down")
	})
	a := NewAsync(failing, log.New("test"), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		if err := a.Notify(ctx, Notification{UserID: 1, Category: CategoryReminder}); err != nil {
			t.Fatalf("Notify returned %v", err)
		}
	}
	a.Wait()
	if calls.Load() != 3 {
		t.Fatalf("deliveries = %d, want 3", calls.Load())
	}
}

func TestAsyncIgnoresCallerCancellation(t *testing.T) {
	var got error
	done := make(chan struct{})
	sink := SinkFunc(func(ctx context.Context, n Notification) error {
		got = ctx.Err()
		close(done)
		return nil
	})
	a := NewAsync(sink, log.New("test"), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = a.Notify(ctx, Notification{UserID: 1})
	<-done
	a.Wait()
	if got != nil {
		t.Fatalf("delivery context err = %v, want nil", got)
	}
}
