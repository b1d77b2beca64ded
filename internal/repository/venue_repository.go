package repository

import (
	"context"

	"github.com/iliyamo/venue-reservation/internal/model"
)

const venueColumns = `id, name, total_capacity, default_capacity, status, open_hour, close_hour`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVenue(row rowScanner) (model.Venue, error) {
	var v model.Venue
	var status string
	err := row.Scan(&v.ID, &v.Name, &v.TotalCapacity, &v.DefaultCapacity, &status, &v.OpenHour, &v.CloseHour)
	v.Status = model.VenueStatus(status)
	return v, err
}

// GetVenue fetches a venue by id.
func (r *queries) GetVenue(ctx context.Context, id uint64) (model.Venue, error) {
	v, err := scanVenue(r.q.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id))
	if err != nil {
		return model.Venue{}, notFound(err)
	}
	return v, nil
}

// ListOpenVenues returns every venue currently accepting bookings.
func (r *queries) ListOpenVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE status = ? ORDER BY id`, string(model.VenueOpen))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SetVenueStatus updates the venue's operating state.
func (r *queries) SetVenueStatus(ctx context.Context, venueID uint64, status model.VenueStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE venues SET status = ? WHERE id = ?`, string(status), venueID)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 when the value is unchanged, so confirm the row exists.
		if _, err := r.GetVenue(ctx, venueID); err != nil {
			return err
		}
	}
	return nil
}
