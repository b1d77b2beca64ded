// Package notify carries notification requests out of the booking core.
// Delivery is fire-and-forget: the lifecycle manager hands notifications
// to a Sink after its transaction commits and never waits on, or fails
// because of, delivery.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// Category tags a notification with the event that caused it.
type Category string

const (
	CategoryConfirmation   Category = "CONFIRMATION"
	CategoryCancellation   Category = "CANCELLATION"
	CategoryPromotion      Category = "PROMOTION"
	CategoryWaitlisted     Category = "WAITLISTED"
	CategoryWaitlistExpiry Category = "WAITLIST_EXPIRED"
	CategoryReminder       Category = "REMINDER"
	CategoryClosure        Category = "CLOSURE"
)

// Notification is one message for one user.
type Notification struct {
	UserID   uint64
	Title    string
	Body     string
	Category Category
}

// Sink delivers notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(context.Context, Notification) error { return nil })

// LogSink writes notifications to a logger.  It is the sink used when no
// broker is configured.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Notify(_ context.Context, n Notification) error {
	s.Logger.Infof("notify user=%d category=%s title=%q", n.UserID, n.Category, n.Title)
	return nil
}

// Async dispatches to an underlying sink on its own goroutine and logs
// failures.  Notify never blocks on delivery and always returns nil.
type Async struct {
	sink    Sink
	log     *log.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync wraps sink.  Each delivery gets at most timeout.
func NewAsync(sink Sink, logger *log.Logger, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{sink: sink, log: logger, timeout: timeout}
}

// Notify schedules delivery of n.  The caller's cancellation does not
// abort the delivery.
func (a *Async) Notify(ctx context.Context, n Notification) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.sink.Notify(dctx, n); err != nil {
			a.log.Warnf("notification to user %d (%s) failed: %v", n.UserID, n.Category, err)
		}
	}()
	return nil
}

// Wait blocks until every scheduled delivery has finished.
func (a *Async) Wait() { a.wg.Wait() }

// Recorder keeps notifications in memory.  Useful in tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// ForUser returns the notifications recorded for userID.
func (r *Recorder) ForUser(userID uint64) []Notification {
	var out []Notification
	for _, n := range r.Sent() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
