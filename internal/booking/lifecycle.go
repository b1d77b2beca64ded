package booking

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/iliyamo/venue-reservation/internal/apperror"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/notify"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/token"
)

// Recurrence asks Create to repeat the requested time-of-day window.
type Recurrence struct {
	Pattern    model.RecurrencePattern
	Until      time.Time      // last date that may hold an occurrence
	Weekdays   []time.Weekday // WEEKLY; defaults to the start's weekday
	DayOfMonth int            // MONTHLY; defaults to the start's day
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	Actor      model.Actor
	VenueID    uint64
	Start      time.Time
	End        time.Time
	Recurrence *Recurrence
}

// Outcome is the result of one occurrence: either a reservation, a
// waiting list entry, or an error.
type Outcome struct {
	Start       time.Time
	End         time.Time
	Reservation *model.Reservation
	Waiting     *model.WaitingEntry
	Err         error
}

// Waitlisted reports whether the occurrence ended up on the waiting list.
func (o Outcome) Waitlisted() bool { return o.Waiting != nil }

// CreateResult lists one Outcome per occurrence.  Series is set for
// recurring requests.
type CreateResult struct {
	Series   *model.RecurringSeries
	Outcomes []Outcome
}

// Create books [Start, End) at the venue for the actor.  When capacity
// is exhausted the request lands on the slot's waiting list instead.
// A recurring request stores the series and books every occurrence in
// its own transaction; failures of individual occurrences are reported
// in their Outcome and do not fail the call.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	start, end := req.Start.UTC(), req.End.UTC()
	if !end.After(start) {
		return CreateResult{}, apperror.New(apperror.KindValidation, "end must be after start")
	}
	if req.Recurrence == nil {
		o := s.createOccurrence(ctx, req.Actor, req.VenueID, start, end, nil)
		if o.Err != nil {
			return CreateResult{}, o.Err
		}
		return CreateResult{Outcomes: []Outcome{o}}, nil
	}

	series, err := s.createSeries(ctx, req, start, end)
	if err != nil {
		return CreateResult{}, err
	}
	res := CreateResult{Series: &series}
	for date := range Dates(series) {
		o := s.createOccurrence(ctx, req.Actor, req.VenueID, date.Add(series.StartTime), date.Add(series.EndTime), &series.ID)
		if o.Err != nil {
			s.log.Infof("series %d occurrence %s: %v", series.ID, date.Format(time.DateOnly), o.Err)
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	return res, nil
}

func (s *Service) createSeries(ctx context.Context, req CreateRequest, start, end time.Time) (model.RecurringSeries, error) {
	rec := req.Recurrence
	day := midnight(start)
	series := model.RecurringSeries{
		UserID:     req.Actor.UserID,
		VenueID:    req.VenueID,
		Pattern:    rec.Pattern,
		StartDate:  day,
		EndDate:    midnight(rec.Until),
		Weekdays:   rec.Weekdays,
		DayOfMonth: rec.DayOfMonth,
		StartTime:  start.Sub(day),
		EndTime:    end.Sub(day),
		CreatedAt:  s.clock.Now(),
	}
	switch rec.Pattern {
	case model.RecurDaily:
	case model.RecurWeekly:
		if len(series.Weekdays) == 0 {
			series.Weekdays = []time.Weekday{start.Weekday()}
		}
		slices.Sort(series.Weekdays)
		series.Weekdays = slices.Compact(series.Weekdays)
	case model.RecurMonthly:
		if series.DayOfMonth == 0 {
			series.DayOfMonth = start.Day()
		}
		if series.DayOfMonth < 1 || series.DayOfMonth > 31 {
			return model.RecurringSeries{}, apperror.New(apperror.KindValidation, "day of month %d out of range", series.DayOfMonth)
		}
	default:
		return model.RecurringSeries{}, apperror.New(apperror.KindValidation, "unknown recurrence pattern %q", rec.Pattern)
	}
	if series.EndTime > 24*time.Hour {
		return model.RecurringSeries{}, apperror.New(apperror.KindValidation, "a recurring occurrence must end on the day it starts")
	}
	if series.EndDate.Before(series.StartDate) {
		return model.RecurringSeries{}, apperror.New(apperror.KindValidation, "recurrence ends before it starts")
	}
	if s.cfg.MaxSeriesSpan > 0 && series.EndDate.Sub(series.StartDate) > s.cfg.MaxSeriesSpan {
		return model.RecurringSeries{}, apperror.New(apperror.KindValidation, "recurrence spans more than %s", s.cfg.MaxSeriesSpan)
	}
	if _, err := s.store.GetVenue(ctx, req.VenueID); err != nil {
		return model.RecurringSeries{}, translate(notFound(err, "venue", req.VenueID))
	}

	err := s.inTx(ctx, func(tx repository.Tx, _ *outbox) error {
		return tx.InsertSeries(ctx, &series)
	})
	return series, err
}

// createOccurrence runs the whole create pipeline for one interval.
func (s *Service) createOccurrence(ctx context.Context, actor model.Actor, venueID uint64, start, end time.Time, seriesID *uint64) Outcome {
	o := Outcome{Start: start, End: end}
	fail := func(err error) Outcome {
		o.Err = translate(err)
		return o
	}

	if start.Before(s.clock.Now()) {
		return fail(apperror.New(apperror.KindValidation, "%s is in the past", start.Format(time.RFC3339)))
	}
	venue, err := s.store.GetVenue(ctx, venueID)
	if err != nil {
		return fail(notFound(err, "venue", venueID))
	}
	if !venue.IsOpen() {
		return fail(apperror.New(apperror.KindConflict, "venue %d is %s", venueID, venue.Status))
	}
	rreq := RuleRequest{UserID: actor.UserID, Role: actor.Role, VenueID: venueID, Start: start, End: end}
	if err := EvaluateRules(ctx, s.store, rreq); err != nil {
		return fail(err)
	}
	conflict, err := DetectConflict(ctx, s.store, venueID, start, end)
	if err != nil {
		return fail(err)
	}
	switch conflict.Kind {
	case ConflictBlocked:
		return fail(apperror.New(apperror.KindConflict, "the venue is blocked on %s %s-%s",
			conflict.Block.Weekday, clockTime(conflict.Block.Start), clockTime(conflict.Block.End)))
	case ConflictCapacity:
		s.log.Infof("venue %d %s-%s: %d overlapping slot(s) full", venueID,
			start.Format(time.RFC3339), end.Format(time.RFC3339), len(conflict.Slots))
	}

	slotStart, slotEnd := Envelope(start, end, s.cfg.SlotGranule)
	err = s.inTx(ctx, func(tx repository.Tx, out *outbox) error {
		o.Reservation, o.Waiting = nil, nil
		if err := tx.LockQuota(ctx, actor.UserID, venueID); err != nil {
			return err
		}
		// Every slot sharing a granule with the envelope is locked, in id
		// order, before the envelope itself.
		overlapping, err := tx.ListSlotsOverlappingForUpdate(ctx, venueID, slotStart, slotEnd)
		if err != nil {
			return err
		}
		slot, err := tx.FindOrCreateSlotForUpdate(ctx, venueID, slotStart, slotEnd, venue.DefaultCapacity)
		if err != nil {
			return err
		}
		// Re-check under the slot lock; a closure may have committed
		// since the optimistic checks.
		v, err := tx.GetVenue(ctx, venueID)
		if err != nil {
			return notFound(err, "venue", venueID)
		}
		if !v.IsOpen() {
			return apperror.New(apperror.KindConflict, "venue %d is %s", venueID, v.Status)
		}
		if err := EvaluateRules(ctx, tx, rreq); err != nil {
			return err
		}

		// A full envelope queues the request.  Capacity held through other
		// overlapping slots cannot be waited for on this slot's queue, so
		// it rejects the request instead.
		if slot.Remaining > 0 {
			held := []model.TimeSlot{slot}
			for _, sl := range overlapping {
				if sl.ID != slot.ID {
					held = append(held, sl)
				}
			}
			if busy := Overbooked(held, slotStart, slotEnd, s.cfg.SlotGranule, slot.Capacity); len(busy) > 0 {
				return apperror.New(apperror.KindConflict, "venue %d is fully booked at %s", venueID, busy[0].Format(time.RFC3339))
			}
		}

		now := s.clock.Now()
		ok, err := TryReserve(ctx, tx, slot.ID)
		if err != nil {
			return err
		}
		if ok {
			r := model.Reservation{
				UserID:       actor.UserID,
				VenueID:      venueID,
				SlotID:       slot.ID,
				Status:       model.StatusPending,
				StartsAt:     start,
				EndsAt:       end,
				SlotStartsAt: slot.StartsAt,
				SeriesID:     seriesID,
				CreatedAt:    now,
			}
			if err := tx.InsertReservation(ctx, &r); err != nil {
				return err
			}
			o.Reservation = &r
			return nil
		}

		e, created, err := Enqueue(ctx, tx, model.WaitingEntry{
			UserID:    actor.UserID,
			SlotID:    slot.ID,
			VenueID:   venueID,
			StartsAt:  start,
			EndsAt:    end,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		o.Waiting = &e
		if created {
			out.add(notify.CategoryWaitlisted, actor.UserID, notify.Details{VenueName: v.Name, StartsAt: start, EndsAt: end})
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}
	return o
}

func clockTime(d time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04")
}

// Get returns a reservation visible to the actor.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uint64) (model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, translate(notFound(err, "reservation", id))
	}
	if err := authorize(actor, r); err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

// Confirm moves a PENDING reservation to CONFIRMED.  It fails with
// DeadlinePassed once the confirmation deadline after creation is over.
func (s *Service) Confirm(ctx context.Context, actor model.Actor, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := s.inTx(ctx, func(tx repository.Tx, out *outbox) error {
		r, err := tx.GetReservationForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "reservation", id)
		}
		if err := authorize(actor, r); err != nil {
			return err
		}
		res, err = s.confirmLocked(ctx, tx, r, out)
		return err
	})
	return res, err
}

// confirmLocked confirms r; the caller holds r's row lock.
func (s *Service) confirmLocked(ctx context.Context, tx repository.Tx, r model.Reservation, out *outbox) (model.Reservation, error) {
	if r.Status != model.StatusPending {
		return r, apperror.New(apperror.KindInvalidState, "reservation %d is %s, not PENDING", r.ID, r.Status)
	}
	now := s.clock.Now()
	if now.Sub(r.CreatedAt) > s.cfg.ConfirmationDeadline {
		return r, apperror.New(apperror.KindDeadlinePassed, "reservation %d can no longer be confirmed", r.ID)
	}
	r.Status = model.StatusConfirmed
	r.ConfirmedAt = &now
	if err := tx.UpdateReservation(ctx, r); err != nil {
		return r, err
	}
	out.add(notify.CategoryConfirmation, r.UserID, s.details(ctx, tx, r, ""))
	return r, nil
}

// CancelResult reports a cancellation and the reservation, if any, that
// took over the freed capacity.
type CancelResult struct {
	Reservation model.Reservation
	Promoted    *model.Reservation
}

// Cancel cancels a PENDING or CONFIRMED reservation on behalf of its
// owner or an admin, up to CancellationDeadline before the slot starts.
// The freed unit goes to the head of the slot's waiting list in the
// same transaction, if there is one.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uint64) (CancelResult, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return CancelResult{}, translate(notFound(err, "reservation", id))
	}
	if err := authorize(actor, r); err != nil {
		return CancelResult{}, err
	}

	var res CancelResult
	err = s.inTx(ctx, func(tx repository.Tx, out *outbox) error {
		res = CancelResult{}
		slot, slotErr := tx.GetSlotForUpdate(ctx, r.SlotID)
		if slotErr != nil && !errors.Is(slotErr, repository.ErrNotFound) {
			return slotErr
		}
		cur, err := tx.GetReservationForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "reservation", id)
		}
		if cur.Status != model.StatusPending && cur.Status != model.StatusConfirmed {
			return apperror.New(apperror.KindInvalidState, "reservation %d is %s", id, cur.Status)
		}
		now := s.clock.Now()
		if now.After(cur.SlotStartsAt.Add(-s.cfg.CancellationDeadline)) {
			return apperror.New(apperror.KindDeadlinePassed, "reservation %d can only be cancelled until %s before it starts", id, s.cfg.CancellationDeadline)
		}
		if slotErr != nil {
			return apperror.New(apperror.KindNotFound, "slot %d of reservation %d not found", r.SlotID, id)
		}

		cur.Status = model.StatusCancelled
		cur.CancelledAt = &now
		if err := tx.UpdateReservation(ctx, cur); err != nil {
			return err
		}
		if err := Release(ctx, tx, slot.ID); err != nil {
			return err
		}
		res.Reservation = cur
		out.add(notify.CategoryCancellation, cur.UserID, s.details(ctx, tx, cur, ""))

		promoted, err := s.promote(ctx, tx, slot, out)
		if err != nil {
			return err
		}
		res.Promoted = promoted
		return nil
	})
	return res, err
}

// promote hands the unit just released on slot to the oldest waiting
// entry.  The caller holds the slot lock.
func (s *Service) promote(ctx context.Context, tx repository.Tx, slot model.TimeSlot, out *outbox) (*model.Reservation, error) {
	e, ok, err := DequeueNext(ctx, tx, slot.ID)
	if err != nil || !ok {
		return nil, err
	}
	reserved, err := TryReserve(ctx, tx, slot.ID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, apperror.New(apperror.KindInternal, "slot %d has no capacity for promotion", slot.ID)
	}
	r := model.Reservation{
		UserID:       e.UserID,
		VenueID:      e.VenueID,
		SlotID:       slot.ID,
		Status:       model.StatusPending,
		StartsAt:     e.StartsAt,
		EndsAt:       e.EndsAt,
		SlotStartsAt: slot.StartsAt,
		CreatedAt:    s.clock.Now(),
	}
	if err := tx.InsertReservation(ctx, &r); err != nil {
		return nil, err
	}
	s.log.Infof("promoted waiting entry %d to reservation %d on slot %d", e.ID, r.ID, slot.ID)
	out.add(notify.CategoryPromotion, r.UserID, s.details(ctx, tx, r, ""))
	return &r, nil
}

// CheckIn marks a CONFIRMED reservation as attended.  It is only
// allowed within CheckInWindow either side of the slot start.
func (s *Service) CheckIn(ctx context.Context, actor model.Actor, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := s.inTx(ctx, func(tx repository.Tx, _ *outbox) error {
		r, err := tx.GetReservationForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "reservation", id)
		}
		if err := authorize(actor, r); err != nil {
			return err
		}
		if r.Status != model.StatusConfirmed {
			return apperror.New(apperror.KindInvalidState, "reservation %d is %s, not CONFIRMED", id, r.Status)
		}
		now := s.clock.Now()
		if d := now.Sub(r.SlotStartsAt); d > s.cfg.CheckInWindow || d < -s.cfg.CheckInWindow {
			return apperror.New(apperror.KindDeadlinePassed, "check-in for reservation %d is open %s either side of its start", id, s.cfg.CheckInWindow)
		}
		r.Status = model.StatusCheckedIn
		r.CheckedInAt = &now
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

// IssueCheckInToken returns a token the owner can present at the venue
// instead of a session.  It expires when the check-in window closes.
func (s *Service) IssueCheckInToken(ctx context.Context, actor model.Actor, id uint64) (string, time.Time, error) {
	if s.tokens == nil {
		return "", time.Time{}, apperror.New(apperror.KindInternal, "check-in tokens are not configured")
	}
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return "", time.Time{}, translate(notFound(err, "reservation", id))
	}
	if actor.UserID != r.UserID {
		return "", time.Time{}, apperror.New(apperror.KindUnauthorized, "only the owner may request a check-in token")
	}
	if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
		return "", time.Time{}, apperror.New(apperror.KindInvalidState, "reservation %d is %s", id, r.Status)
	}
	exp := r.SlotStartsAt.Add(s.cfg.CheckInWindow)
	now := s.clock.Now()
	if !exp.After(now) {
		return "", time.Time{}, apperror.New(apperror.KindDeadlinePassed, "check-in for reservation %d has closed", id)
	}
	tok, err := s.tokens.Sign(token.CheckInPayload{ReservationID: r.ID, UserID: r.UserID}, exp.Sub(now))
	if err != nil {
		return "", time.Time{}, apperror.Wrap(apperror.KindInternal, err, "sign check-in token")
	}
	return tok, exp, nil
}

// CheckInWithToken checks in the reservation a token was issued for.
func (s *Service) CheckInWithToken(ctx context.Context, tok string) (model.Reservation, error) {
	if s.tokens == nil {
		return model.Reservation{}, apperror.New(apperror.KindInternal, "check-in tokens are not configured")
	}
	p, err := s.tokens.Verify(tok)
	if err != nil {
		return model.Reservation{}, apperror.Wrap(apperror.KindUnauthorized, err, "invalid check-in token")
	}
	return s.CheckIn(ctx, model.Actor{UserID: p.UserID, Role: model.RoleEmployee}, p.ReservationID)
}

// ClosureRequest describes a venue becoming unavailable over [From, To).
type ClosureRequest struct {
	VenueID uint64
	From    time.Time
	To      time.Time
	Status  model.VenueStatus
	Reason  string
}

// ClosureResult counts what a closure touched.
type ClosureResult struct {
	Cancelled    int
	Expired      int
	SlotsRemoved int
}

// HandleVenueClosure switches the venue to CLOSED or MAINTENANCE and
// removes its slots starting in [From, To).  Active reservations on
// those slots are cancelled without giving capacity back, since the
// slots disappear, and their waiting entries expire.  Every affected
// user is notified.  The status applies to the whole venue until
// ReopenVenue; [From, To) only bounds what is torn down.
func (s *Service) HandleVenueClosure(ctx context.Context, actor model.Actor, req ClosureRequest) (ClosureResult, error) {
	if !actor.IsAdmin() {
		return ClosureResult{}, apperror.New(apperror.KindUnauthorized, "only admins may close venues")
	}
	if req.Status != model.VenueClosed && req.Status != model.VenueMaintenance {
		return ClosureResult{}, apperror.New(apperror.KindValidation, "closure status must be CLOSED or MAINTENANCE, got %q", req.Status)
	}
	from, to := req.From.UTC(), req.To.UTC()
	if !to.After(from) {
		return ClosureResult{}, apperror.New(apperror.KindValidation, "closure range is empty")
	}

	var res ClosureResult
	err := s.inTx(ctx, func(tx repository.Tx, out *outbox) error {
		res = ClosureResult{}
		venue, err := tx.GetVenue(ctx, req.VenueID)
		if err != nil {
			return notFound(err, "venue", req.VenueID)
		}
		slots, err := tx.ListSlotsForUpdate(ctx, req.VenueID, from, to)
		if err != nil {
			return err
		}
		if err := tx.SetVenueStatus(ctx, req.VenueID, req.Status); err != nil {
			return err
		}
		now := s.clock.Now()
		ids := make([]uint64, 0, len(slots))
		for _, slot := range slots {
			ids = append(ids, slot.ID)
			rs, err := tx.ListReservationsBySlot(ctx, slot.ID)
			if err != nil {
				return err
			}
			for _, r := range rs {
				if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
					continue
				}
				cur, err := tx.GetReservationForUpdate(ctx, r.ID)
				if err != nil {
					return err
				}
				if cur.Status != model.StatusPending && cur.Status != model.StatusConfirmed {
					continue
				}
				cur.Status = model.StatusCancelled
				cur.CancelledAt = &now
				if err := tx.UpdateReservation(ctx, cur); err != nil {
					return err
				}
				res.Cancelled++
				out.add(notify.CategoryClosure, cur.UserID, notify.Details{
					ReservationID: cur.ID,
					VenueName:     venue.Name,
					StartsAt:      cur.StartsAt,
					EndsAt:        cur.EndsAt,
					Reason:        req.Reason,
				})
			}
			entries, err := tx.ListWaitingEntries(ctx, slot.ID)
			if err != nil {
				return err
			}
			for _, e := range entries {
				ok, err := tx.ExpireWaitingEntry(ctx, e.ID)
				if err != nil {
					return err
				}
				if ok {
					res.Expired++
					out.add(notify.CategoryWaitlistExpiry, e.UserID, notify.Details{VenueName: venue.Name, StartsAt: e.StartsAt, EndsAt: e.EndsAt})
				}
			}
		}
		if err := tx.DeleteSlots(ctx, ids); err != nil {
			return err
		}
		res.SlotsRemoved = len(ids)
		return nil
	})
	if err == nil {
		s.log.Infof("venue %d set %s: %d reservation(s) cancelled, %d waiting entr(ies) expired, %d slot(s) removed",
			req.VenueID, req.Status, res.Cancelled, res.Expired, res.SlotsRemoved)
	}
	return res, err
}

// ReopenVenue puts a closed venue back into service.  Slots removed by a
// closure come back lazily on booking or through the materializer.
// Reopening an open venue is a no-op.
func (s *Service) ReopenVenue(ctx context.Context, actor model.Actor, venueID uint64) (model.Venue, error) {
	if !actor.IsAdmin() {
		return model.Venue{}, apperror.New(apperror.KindUnauthorized, "only admins may reopen venues")
	}
	var venue model.Venue
	err := s.inTx(ctx, func(tx repository.Tx, _ *outbox) error {
		v, err := tx.GetVenue(ctx, venueID)
		if err != nil {
			return notFound(err, "venue", venueID)
		}
		if !v.IsOpen() {
			if err := tx.SetVenueStatus(ctx, venueID, model.VenueOpen); err != nil {
				return err
			}
			s.log.Infof("venue %d reopened (was %s)", venueID, v.Status)
			v.Status = model.VenueOpen
		}
		venue = v
		return nil
	})
	return venue, err
}

// WaitingList returns the active waiting entries of a slot in promotion
// order.  Admin only.
func (s *Service) WaitingList(ctx context.Context, actor model.Actor, slotID uint64) ([]model.WaitingEntry, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.KindUnauthorized, "only admins may read waiting lists")
	}
	if _, err := s.store.GetSlot(ctx, slotID); err != nil {
		return nil, translate(notFound(err, "slot", slotID))
	}
	entries, err := s.store.ListWaitingEntries(ctx, slotID)
	return entries, translate(err)
}

// Availability is a venue's slot calendar for one day.
type Availability struct {
	Venue  model.Venue
	Date   time.Time
	Slots  []model.TimeSlot
	Blocks []model.BlockedInterval
}

// Availability returns the slots and blocks of the venue on date.
func (s *Service) Availability(ctx context.Context, venueID uint64, date time.Time) (Availability, error) {
	venue, err := s.store.GetVenue(ctx, venueID)
	if err != nil {
		return Availability{}, translate(notFound(err, "venue", venueID))
	}
	day := midnight(date)
	slots, err := s.store.ListSlotsOverlapping(ctx, venueID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return Availability{}, translate(err)
	}
	blocks, err := s.store.ListBlockedIntervals(ctx, venueID, day.Weekday())
	if err != nil {
		return Availability{}, translate(err)
	}
	return Availability{Venue: venue, Date: day, Slots: slots, Blocks: blocks}, nil
}
