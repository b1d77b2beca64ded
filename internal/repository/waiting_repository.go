package repository

import (
	"context"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

const waitingColumns = `w.id, w.user_id, w.slot_id, w.venue_id, w.starts_at, w.ends_at, w.is_expired, w.created_at`

func scanWaiting(row rowScanner) (model.WaitingEntry, error) {
	var e model.WaitingEntry
	err := row.Scan(&e.ID, &e.UserID, &e.SlotID, &e.VenueID, &e.StartsAt, &e.EndsAt, &e.IsExpired, &e.CreatedAt)
	e.StartsAt = e.StartsAt.UTC()
	e.EndsAt = e.EndsAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return e, err
}

func (r *queries) listWaiting(ctx context.Context, query string, args ...any) ([]model.WaitingEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.WaitingEntry
	for rows.Next() {
		e, err := scanWaiting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, classify(rows.Err())
}

// ListWaitingEntries returns the active queue of a slot, oldest first.
func (r *queries) ListWaitingEntries(ctx context.Context, slotID uint64) ([]model.WaitingEntry, error) {
	return r.listWaiting(ctx,
		`SELECT `+waitingColumns+` FROM waiting_entries w
		 WHERE w.slot_id = ? AND w.is_expired = 0
		 ORDER BY w.created_at, w.id`, slotID)
}

// ListStaleWaitingEntries returns active entries whose slot starts
// before the given instant.
func (r *queries) ListStaleWaitingEntries(ctx context.Context, before time.Time) ([]model.WaitingEntry, error) {
	return r.listWaiting(ctx,
		`SELECT `+waitingColumns+` FROM waiting_entries w
		 JOIN time_slots s ON s.id = w.slot_id
		 WHERE w.is_expired = 0 AND s.starts_at < ?
		 ORDER BY s.starts_at, w.created_at, w.id`, before.UTC())
}

// FindActiveWaitingEntry returns the user's non-expired entry for a slot.
func (r *queries) FindActiveWaitingEntry(ctx context.Context, slotID, userID uint64) (model.WaitingEntry, error) {
	e, err := scanWaiting(r.q.QueryRowContext(ctx,
		`SELECT `+waitingColumns+` FROM waiting_entries w
		 WHERE w.slot_id = ? AND w.user_id = ? AND w.is_expired = 0
		 LIMIT 1`, slotID, userID))
	if err != nil {
		return model.WaitingEntry{}, notFound(err)
	}
	return e, nil
}

// InsertWaitingEntry appends an entry to the tail of the slot's queue.
func (r *queries) InsertWaitingEntry(ctx context.Context, e *model.WaitingEntry) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO waiting_entries (user_id, slot_id, venue_id, starts_at, ends_at, is_expired, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		e.UserID, e.SlotID, e.VenueID, e.StartsAt.UTC(), e.EndsAt.UTC(), e.CreatedAt.UTC())
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify(err)
	}
	e.ID = uint64(id)
	return nil
}

// NextWaitingEntryForUpdate locks the head of the slot's queue.
func (r *queries) NextWaitingEntryForUpdate(ctx context.Context, slotID uint64) (model.WaitingEntry, error) {
	e, err := scanWaiting(r.q.QueryRowContext(ctx,
		`SELECT `+waitingColumns+` FROM waiting_entries w
		 WHERE w.slot_id = ? AND w.is_expired = 0
		 ORDER BY w.created_at, w.id
		 LIMIT 1 FOR UPDATE`, slotID))
	if err != nil {
		return model.WaitingEntry{}, notFound(err)
	}
	return e, nil
}

// DeleteWaitingEntry removes a promoted entry.
func (r *queries) DeleteWaitingEntry(ctx context.Context, id uint64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM waiting_entries WHERE id = ?`, id)
	return classify(err)
}

// ExpireWaitingEntry flags the entry; the WHERE clause keeps it idempotent.
func (r *queries) ExpireWaitingEntry(ctx context.Context, id uint64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE waiting_entries SET is_expired = 1 WHERE id = ? AND is_expired = 0`, id)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}
