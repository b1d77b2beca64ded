package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

const slotColumns = `id, venue_id, starts_at, ends_at, capacity, remaining`

func scanSlot(row rowScanner) (model.TimeSlot, error) {
	var s model.TimeSlot
	err := row.Scan(&s.ID, &s.VenueID, &s.StartsAt, &s.EndsAt, &s.Capacity, &s.Remaining)
	s.StartsAt = s.StartsAt.UTC()
	s.EndsAt = s.EndsAt.UTC()
	return s, err
}

func (r *queries) listSlots(ctx context.Context, query string, args ...any) ([]model.TimeSlot, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, classify(rows.Err())
}

// GetSlot fetches a slot by id without locking it.
func (r *queries) GetSlot(ctx context.Context, id uint64) (model.TimeSlot, error) {
	s, err := scanSlot(r.q.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id))
	if err != nil {
		return model.TimeSlot{}, notFound(err)
	}
	return s, nil
}

// FindSlot looks a slot up by its unique (venue, start, end) key.
func (r *queries) FindSlot(ctx context.Context, venueID uint64, start, end time.Time) (model.TimeSlot, error) {
	s, err := scanSlot(r.q.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots WHERE venue_id = ? AND starts_at = ? AND ends_at = ?`,
		venueID, start.UTC(), end.UTC()))
	if err != nil {
		return model.TimeSlot{}, notFound(err)
	}
	return s, nil
}

// ListSlotsOverlapping returns slots with starts_at < to AND ends_at > from.
func (r *queries) ListSlotsOverlapping(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	return r.listSlots(ctx,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE venue_id = ? AND starts_at < ? AND ends_at > ?
		 ORDER BY starts_at, ends_at`,
		venueID, to.UTC(), from.UTC())
}

// GetSlotForUpdate locks the slot row for the rest of the transaction.
func (r *queries) GetSlotForUpdate(ctx context.Context, id uint64) (model.TimeSlot, error) {
	s, err := scanSlot(r.q.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		return model.TimeSlot{}, notFound(err)
	}
	return s, nil
}

// FindOrCreateSlotForUpdate inserts the slot if it is missing and locks it.
// ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id) makes LastInsertId
// report the existing row's id when the unique key already exists, so
// concurrent first bookings converge on one row.
func (r *queries) FindOrCreateSlotForUpdate(ctx context.Context, venueID uint64, start, end time.Time, capacity int) (model.TimeSlot, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO time_slots (venue_id, starts_at, ends_at, capacity, remaining)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`,
		venueID, start.UTC(), end.UTC(), capacity, capacity)
	if err != nil {
		return model.TimeSlot{}, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimeSlot{}, classify(err)
	}
	return r.GetSlotForUpdate(ctx, uint64(id))
}

// EnsureSlot inserts the slot unless it already exists.
func (r *queries) EnsureSlot(ctx context.Context, venueID uint64, start, end time.Time, capacity int) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT IGNORE INTO time_slots (venue_id, starts_at, ends_at, capacity, remaining) VALUES (?, ?, ?, ?, ?)`,
		venueID, start.UTC(), end.UTC(), capacity, capacity)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// ListSlotsForUpdate locks every slot of the venue starting in [from, to).
func (r *queries) ListSlotsForUpdate(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	return r.listSlots(ctx,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE venue_id = ? AND starts_at >= ? AND starts_at < ?
		 ORDER BY id FOR UPDATE`,
		venueID, from.UTC(), to.UTC())
}

// ListSlotsOverlappingForUpdate locks every slot of the venue overlapping [from, to).
func (r *queries) ListSlotsOverlappingForUpdate(ctx context.Context, venueID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	return r.listSlots(ctx,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE venue_id = ? AND starts_at < ? AND ends_at > ?
		 ORDER BY id FOR UPDATE`,
		venueID, to.UTC(), from.UTC())
}

// UpdateSlotRemaining writes the ledger's new counter value.  The CHECK
// constraint on the table rejects values outside [0, capacity].
func (r *queries) UpdateSlotRemaining(ctx context.Context, slotID uint64, remaining int) error {
	res, err := r.q.ExecContext(ctx, `UPDATE time_slots SET remaining = ? WHERE id = ?`, remaining, slotID)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetSlot(ctx, slotID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSlots removes the given slots.  Reservations keep their
// slot_id and copied interval for history.
func (r *queries) DeleteSlots(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM time_slots WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
	return classify(err)
}
