// Package booking is the reservation core: capacity accounting on time
// slots, the FIFO waiting list, booking rules, conflict detection and
// the reservation state machine, plus the periodic sweeps that age
// reservations through it.
//
// Every capacity change happens inside a store transaction that holds
// the slot's row lock.  The lock order is slot, then reservation, then
// waiting entry.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-reservation/internal/apperror"
	"github.com/iliyamo/venue-reservation/internal/clock"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/notify"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/token"
)

// Config holds the deadlines and tuning knobs of the core.
type Config struct {
	CancellationDeadline time.Duration // cancel allowed until slot start minus this
	ConfirmationDeadline time.Duration // confirm allowed until created_at plus this
	AutoConfirmWindow    time.Duration
	CheckInWindow        time.Duration // either side of slot start
	WaitlistHorizon      time.Duration
	ReminderLead         time.Duration
	SlotGranule          time.Duration
	MaterializeDays      int
	MaxSeriesSpan        time.Duration
	RetryAttempts        int
	RetryBackoff         time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CancellationDeadline: 2 * time.Hour,
		ConfirmationDeadline: 24 * time.Hour,
		AutoConfirmWindow:    time.Hour,
		CheckInWindow:        15 * time.Minute,
		WaitlistHorizon:      time.Hour,
		ReminderLead:         24 * time.Hour,
		SlotGranule:          time.Hour,
		MaterializeDays:      14,
		MaxSeriesSpan:        366 * 24 * time.Hour,
		RetryAttempts:        3,
		RetryBackoff:         50 * time.Millisecond,
	}
}

// CheckInTokens signs and verifies check-in tokens.
type CheckInTokens interface {
	Sign(p token.CheckInPayload, ttl time.Duration) (string, error)
	Verify(tok string) (token.CheckInPayload, error)
}

// Service is the reservation lifecycle manager.
type Service struct {
	store  repository.Store
	clock  clock.Clock
	sink   notify.Sink
	tokens CheckInTokens
	cfg    Config
	log    *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source.  Defaults to the wall clock.
func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

// WithSink sets where notifications go after commit.  The sink should not
// block; wrap slow sinks in notify.Async.
func WithSink(n notify.Sink) Option { return func(s *Service) { s.sink = n } }

// WithCheckInTokens enables IssueCheckInToken and CheckInWithToken.
func WithCheckInTokens(t CheckInTokens) Option { return func(s *Service) { s.tokens = t } }

// WithConfig replaces DefaultConfig.
func WithConfig(c Config) Option { return func(s *Service) { s.cfg = c } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(s *Service) { s.log = l } }

// NewService returns a Service backed by store.
func NewService(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: clock.Real(),
		sink:  notify.Discard,
		cfg:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = log.New("booking")
	}
	if s.cfg.RetryAttempts < 1 {
		s.cfg.RetryAttempts = 1
	}
	return s
}

// Config returns the active configuration.
func (s *Service) Config() Config { return s.cfg }

// pending is a notification waiting for its transaction to commit.
type pending struct {
	category notify.Category
	userID   uint64
	details  notify.Details
}

type outbox struct {
	items []pending
}

func (o *outbox) add(c notify.Category, userID uint64, d notify.Details) {
	o.items = append(o.items, pending{category: c, userID: userID, details: d})
}

// inTx runs fn in a transaction, retrying transient failures, and
// dispatches the notifications fn queued once the transaction commits.
func (s *Service) inTx(ctx context.Context, fn func(tx repository.Tx, out *outbox) error) error {
	var out outbox
	err := s.retry(ctx, func() error {
		out.items = out.items[:0]
		return s.store.WithTx(ctx, func(tx repository.Tx) error {
			return fn(tx, &out)
		})
	})
	if err != nil {
		return translate(err)
	}
	s.dispatch(ctx, out.items)
	return nil
}

func (s *Service) retry(ctx context.Context, op func() error) error {
	backoff := s.cfg.RetryBackoff
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !repository.IsTransient(err) || attempt >= s.cfg.RetryAttempts {
			return err
		}
		s.log.Warnf("transient store error, attempt %d/%d: %v", attempt, s.cfg.RetryAttempts, err)
		if backoff > 0 {
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
			backoff *= 2
		}
	}
}

func (s *Service) dispatch(ctx context.Context, items []pending) {
	for _, p := range items {
		n, err := notify.Build(p.category, p.userID, p.details)
		if err != nil {
			s.log.Errorf("build %s notification: %v", p.category, err)
			continue
		}
		if err := s.sink.Notify(ctx, n); err != nil {
			s.log.Warnf("notify user %d (%s): %v", p.userID, p.category, err)
		}
	}
}

// details collects what the templates need about r.
func (s *Service) details(ctx context.Context, q repository.Queries, r model.Reservation, reason string) notify.Details {
	return notify.Details{
		ReservationID: r.ID,
		VenueName:     s.venueName(ctx, q, r.VenueID),
		StartsAt:      r.StartsAt,
		EndsAt:        r.EndsAt,
		Reason:        reason,
	}
}

func (s *Service) venueName(ctx context.Context, q repository.Queries, venueID uint64) string {
	v, err := q.GetVenue(ctx, venueID)
	if err != nil || v.Name == "" {
		return fmt.Sprintf("venue #%d", venueID)
	}
	return v.Name
}

// translate maps store errors onto the taxonomy.  Errors that already
// belong to it pass through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperror.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case repository.IsTransient(err):
		return apperror.Wrap(apperror.KindTransientStore, err, "store busy, retry later")
	case errors.Is(err, repository.ErrNotFound):
		return apperror.Wrap(apperror.KindNotFound, err, "not found")
	}
	return apperror.Wrap(apperror.KindInternal, err, "store failure")
}

// notFound converts a missing row into a NotFound error naming what was
// missing.
func notFound(err error, what string, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.New(apperror.KindNotFound, "%s %d not found", what, id)
	}
	return err
}

func authorize(actor model.Actor, r model.Reservation) error {
	if actor.IsAdmin() || actor.UserID == r.UserID {
		return nil
	}
	return apperror.New(apperror.KindUnauthorized, "user %d may not act on reservation %d", actor.UserID, r.ID)
}
