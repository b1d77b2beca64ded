package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/venue-reservation/internal/apperror"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/notify"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// The sweeps below are safe to run repeatedly and concurrently with
// request traffic: each item is re-read under its row lock and skipped
// when its preconditions no longer hold.  They return how many items
// they changed.

// AutoConfirm confirms PENDING reservations whose slot starts within
// AutoConfirmWindow from now.
func (s *Service) AutoConfirm(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.store.ListReservationsStartingBetween(ctx, model.StatusPending, now, now.Add(s.cfg.AutoConfirmWindow))
	if err != nil {
		return 0, translate(err)
	}
	confirmed := 0
	for _, r := range due {
		var changed bool
		err := s.inTx(ctx, func(tx repository.Tx, out *outbox) error {
			changed = false
			cur, err := tx.GetReservationForUpdate(ctx, r.ID)
			if err != nil {
				return err
			}
			if cur.Status != model.StatusPending {
				return nil
			}
			if _, err := s.confirmLocked(ctx, tx, cur, out); err != nil {
				return err
			}
			changed = true
			return nil
		})
		switch {
		case err == nil:
		case errors.Is(err, apperror.ErrDeadlinePassed), errors.Is(err, apperror.ErrInvalidState), errors.Is(err, apperror.ErrNotFound):
			s.log.Debugf("auto-confirm skipped reservation %d: %v", r.ID, err)
			continue
		default:
			s.log.Errorf("auto-confirm reservation %d: %v", r.ID, err)
			continue
		}
		if changed {
			confirmed++
		}
	}
	return confirmed, nil
}

// ExpireWaiting expires waiting entries whose slot starts within
// WaitlistHorizon.
func (s *Service) ExpireWaiting(ctx context.Context) (int, error) {
	return s.ExpireStale(ctx, s.cfg.WaitlistHorizon)
}

// SendReminders notifies owners of PENDING and CONFIRMED reservations
// starting within ReminderLead.  reminder_sent_at makes each reminder go
// out once.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	now := s.clock.Now()
	var due []model.Reservation
	for _, st := range []model.ReservationStatus{model.StatusPending, model.StatusConfirmed} {
		rs, err := s.store.ListReservationsStartingBetween(ctx, st, now, now.Add(s.cfg.ReminderLead))
		if err != nil {
			return 0, translate(err)
		}
		due = append(due, rs...)
	}
	sent := 0
	for _, r := range due {
		if r.ReminderSentAt != nil {
			continue
		}
		var changed bool
		err := s.inTx(ctx, func(tx repository.Tx, out *outbox) error {
			changed = false
			cur, err := tx.GetReservationForUpdate(ctx, r.ID)
			if err != nil {
				return err
			}
			if cur.ReminderSentAt != nil || (cur.Status != model.StatusPending && cur.Status != model.StatusConfirmed) {
				return nil
			}
			at := s.clock.Now()
			cur.ReminderSentAt = &at
			if err := tx.UpdateReservation(ctx, cur); err != nil {
				return err
			}
			out.add(notify.CategoryReminder, cur.UserID, s.details(ctx, tx, cur, ""))
			changed = true
			return nil
		})
		if err != nil {
			s.log.Errorf("reminder for reservation %d: %v", r.ID, err)
			continue
		}
		if changed {
			sent++
		}
	}
	return sent, nil
}

// MaterializeSlots pre-creates one slot per granule within opening hours
// for every open venue, MaterializeDays ahead starting today.  Slots
// that already exist, or that have started, are left alone.
func (s *Service) MaterializeSlots(ctx context.Context) (int, error) {
	venues, err := s.store.ListOpenVenues(ctx)
	if err != nil {
		return 0, translate(err)
	}
	granule := s.cfg.SlotGranule
	if granule <= 0 {
		granule = time.Hour
	}
	now := s.clock.Now()
	today := midnight(now)
	created := 0
	for _, v := range venues {
		if v.CloseHour <= v.OpenHour {
			continue
		}
		for d := 0; d < s.cfg.MaterializeDays; d++ {
			day := today.AddDate(0, 0, d)
			open := day.Add(time.Duration(v.OpenHour) * time.Hour)
			closing := day.Add(time.Duration(v.CloseHour) * time.Hour)
			n := 0
			err := s.inTx(ctx, func(tx repository.Tx, _ *outbox) error {
				n = 0
				for start := open; !start.Add(granule).After(closing); start = start.Add(granule) {
					if start.Before(now) {
						continue
					}
					ok, err := tx.EnsureSlot(ctx, v.ID, start, start.Add(granule), v.DefaultCapacity)
					if err != nil {
						return err
					}
					if ok {
						n++
					}
				}
				return nil
			})
			if err != nil {
				s.log.Errorf("materialize venue %d on %s: %v", v.ID, day.Format(time.DateOnly), err)
				continue
			}
			created += n
		}
	}
	return created, nil
}
