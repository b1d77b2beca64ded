package model

import "time"

// WaitingEntry is a queued request for a slot that was full when the
// user asked for it.  Entries of one slot are served strictly by
// (CreatedAt, ID).  A user has at most one non-expired entry per slot.
type WaitingEntry struct {
    ID        uint64    // waiting_entries.id
    UserID    uint64    // waiting_entries.user_id
    SlotID    uint64    // waiting_entries.slot_id
    VenueID   uint64    // waiting_entries.venue_id
    StartsAt  time.Time // waiting_entries.starts_at
    EndsAt    time.Time // waiting_entries.ends_at
    IsExpired bool      // waiting_entries.is_expired
    CreatedAt time.Time // waiting_entries.created_at
}
