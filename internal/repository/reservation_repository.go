package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

const reservationColumns = `id, user_id, venue_id, slot_id, status, starts_at, ends_at, slot_starts_at,
	series_id, created_at, confirmed_at, cancelled_at, checked_in_at, reminder_sent_at`

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		r                                    model.Reservation
		status                               string
		seriesID                             sql.NullInt64
		confirmed, cancelled, checkedIn, rem sql.NullTime
	)
	err := row.Scan(&r.ID, &r.UserID, &r.VenueID, &r.SlotID, &status, &r.StartsAt, &r.EndsAt, &r.SlotStartsAt,
		&seriesID, &r.CreatedAt, &confirmed, &cancelled, &checkedIn, &rem)
	if err != nil {
		return model.Reservation{}, err
	}
	r.Status = model.ReservationStatus(status)
	r.StartsAt = r.StartsAt.UTC()
	r.EndsAt = r.EndsAt.UTC()
	r.SlotStartsAt = r.SlotStartsAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	if seriesID.Valid {
		id := uint64(seriesID.Int64)
		r.SeriesID = &id
	}
	r.ConfirmedAt = timePtr(confirmed)
	r.CancelledAt = timePtr(cancelled)
	r.CheckedInAt = timePtr(checkedIn)
	r.ReminderSentAt = timePtr(rem)
	return r, nil
}

func (r *queries) listReservations(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, classify(rows.Err())
}

// GetReservation fetches a reservation by id.
func (r *queries) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return model.Reservation{}, notFound(err)
	}
	return res, nil
}

// GetReservationForUpdate locks the reservation row.
func (r *queries) GetReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		return model.Reservation{}, notFound(err)
	}
	return res, nil
}

// CountActiveReservations counts non-cancelled reservations of a user at
// a venue with starts_at in [from, to).
func (r *queries) CountActiveReservations(ctx context.Context, userID, venueID uint64, from, to time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE user_id = ? AND venue_id = ? AND status <> ? AND starts_at >= ? AND starts_at < ?`,
		userID, venueID, string(model.StatusCancelled), from.UTC(), to.UTC()).Scan(&n)
	return n, classify(err)
}

// ListReservationsBySlot returns every reservation bound to a slot.
func (r *queries) ListReservationsBySlot(ctx context.Context, slotID uint64) ([]model.Reservation, error) {
	return r.listReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE slot_id = ? ORDER BY created_at, id`, slotID)
}

// ListReservationsStartingBetween feeds the sweeps.
func (r *queries) ListReservationsStartingBetween(ctx context.Context, status model.ReservationStatus, from, to time.Time) ([]model.Reservation, error) {
	return r.listReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE status = ? AND slot_starts_at >= ? AND slot_starts_at <= ?
		 ORDER BY slot_starts_at, id`,
		string(status), from.UTC(), to.UTC())
}

// InsertReservation inserts a reservation and reads back its id.
// CreatedAt is taken from the caller so deadlines follow the injected clock.
func (r *queries) InsertReservation(ctx context.Context, res *model.Reservation) error {
	var seriesID sql.NullInt64
	if res.SeriesID != nil {
		seriesID = sql.NullInt64{Int64: int64(*res.SeriesID), Valid: true}
	}
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO reservations
		 (user_id, venue_id, slot_id, status, starts_at, ends_at, slot_starts_at, series_id, created_at, confirmed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.UserID, res.VenueID, res.SlotID, string(res.Status), res.StartsAt.UTC(), res.EndsAt.UTC(),
		res.SlotStartsAt.UTC(), seriesID, res.CreatedAt.UTC(), nullTime(res.ConfirmedAt))
	if err != nil {
		return classify(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return classify(err)
	}
	res.ID = uint64(id)
	return nil
}

// UpdateReservation persists the status and lifecycle timestamps.
func (r *queries) UpdateReservation(ctx context.Context, res model.Reservation) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE reservations
		 SET status = ?, confirmed_at = ?, cancelled_at = ?, checked_in_at = ?, reminder_sent_at = ?
		 WHERE id = ?`,
		string(res.Status), nullTime(res.ConfirmedAt), nullTime(res.CancelledAt),
		nullTime(res.CheckedInAt), nullTime(res.ReminderSentAt), res.ID)
	if err != nil {
		return classify(err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetReservation(ctx, res.ID); err != nil {
			return err
		}
	}
	return nil
}
