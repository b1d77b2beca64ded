package booking

import (
	"context"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// ConflictKind says why a request conflicts.
type ConflictKind int

const (
	ConflictNone ConflictKind = iota
	ConflictCapacity
	ConflictBlocked
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictCapacity:
		return "capacity"
	case ConflictBlocked:
		return "blocked"
	default:
		return "none"
	}
}

// ConflictResult is the outcome of conflict detection.  Slots lists the
// exhausted slots for a capacity conflict; Block is the offending block
// for a blocked conflict.
type ConflictResult struct {
	Kind  ConflictKind
	Slots []model.TimeSlot
	Block *model.BlockedInterval
}

// OK reports whether there is no conflict.
func (r ConflictResult) OK() bool { return r.Kind == ConflictNone }

// ConflictState is the venue state a request is checked against: the
// slots overlapping the request and the blocks of the weekdays it
// touches.
type ConflictState struct {
	Slots  []model.TimeSlot
	Blocks []model.BlockedInterval
}

// EvaluateConflict checks [start, end) against state.  A blocked
// interval wins over a capacity conflict since it cannot be waited out.
func EvaluateConflict(state ConflictState, start, end time.Time) ConflictResult {
	for i := range state.Blocks {
		b := state.Blocks[i]
		for _, day := range days(start, end) {
			if day.Weekday() != b.Weekday {
				continue
			}
			bs, be := b.On(day)
			if overlaps(start, end, bs, be) {
				return ConflictResult{Kind: ConflictBlocked, Block: &b}
			}
		}
	}
	var full []model.TimeSlot
	for _, sl := range state.Slots {
		if overlaps(start, end, sl.StartsAt, sl.EndsAt) && sl.Remaining <= 0 {
			full = append(full, sl)
		}
	}
	if len(full) > 0 {
		return ConflictResult{Kind: ConflictCapacity, Slots: full}
	}
	return ConflictResult{Kind: ConflictNone}
}

// Overbooked returns the starts of the granules of [start, end) that
// cannot take one more holder.  A granule's holders are summed over every
// slot overlapping it, so a long slot and the short slots inside it share
// one budget of capacity.  A non-positive granule treats [start, end) as
// a single granule.
func Overbooked(slots []model.TimeSlot, start, end time.Time, granule time.Duration, capacity int) []time.Time {
	if granule <= 0 {
		granule = end.Sub(start)
	}
	var out []time.Time
	for g := start; g.Before(end); g = g.Add(granule) {
		ge := g.Add(granule)
		held := 0
		for _, sl := range slots {
			if overlaps(g, ge, sl.StartsAt, sl.EndsAt) {
				held += sl.Capacity - sl.Remaining
			}
		}
		if held >= capacity {
			out = append(out, g)
		}
	}
	return out
}

// DetectConflict loads the state relevant to [start, end) at venueID and
// evaluates it.  It does not lock anything.
func DetectConflict(ctx context.Context, q repository.Queries, venueID uint64, start, end time.Time) (ConflictResult, error) {
	slots, err := q.ListSlotsOverlapping(ctx, venueID, start, end)
	if err != nil {
		return ConflictResult{}, err
	}
	var blocks []model.BlockedInterval
	seen := map[time.Weekday]bool{}
	for _, day := range days(start, end) {
		if seen[day.Weekday()] {
			continue
		}
		seen[day.Weekday()] = true
		bs, err := q.ListBlockedIntervals(ctx, venueID, day.Weekday())
		if err != nil {
			return ConflictResult{}, err
		}
		blocks = append(blocks, bs...)
	}
	return EvaluateConflict(ConflictState{Slots: slots, Blocks: blocks}, start, end), nil
}

// overlaps is half-open interval overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// days returns the midnights of every calendar day [start, end) touches.
func days(start, end time.Time) []time.Time {
	var out []time.Time
	for d := midnight(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Envelope widens [start, end) to granule boundaries.  The result is the
// key of the slot backing the request.
func Envelope(start, end time.Time, granule time.Duration) (time.Time, time.Time) {
	start, end = start.UTC(), end.UTC()
	if granule <= 0 {
		return start, end
	}
	s := start.Truncate(granule)
	e := end.Truncate(granule)
	if e.Before(end) {
		e = e.Add(granule)
	}
	return s, e
}
