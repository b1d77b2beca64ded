package model

// VenueStatus is the operating state of a venue.  Only OPEN venues accept
// new reservations; switching to CLOSED or MAINTENANCE cancels the
// reservations on the affected slots.
type VenueStatus string

const (
    VenueOpen        VenueStatus = "OPEN"
    VenueClosed      VenueStatus = "CLOSED"
    VenueMaintenance VenueStatus = "MAINTENANCE"
)

// Venue represents a bookable place as stored in the `venues` table.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name used in notifications.
//  TotalCapacity   – physical capacity of the venue.
//  DefaultCapacity – capacity given to each newly created time slot.
//  Status          – OPEN, CLOSED or MAINTENANCE.
//  OpenHour        – first bookable hour of the day (0‑23).
//  CloseHour       – hour at which the last slot ends (1‑24).
type Venue struct {
    ID              uint64      // venues.id
    Name            string      // venues.name
    TotalCapacity   int         // venues.total_capacity
    DefaultCapacity int         // venues.default_capacity
    Status          VenueStatus // venues.status
    OpenHour        int         // venues.open_hour
    CloseHour       int         // venues.close_hour
}

// IsOpen reports whether the venue currently accepts bookings.
func (v Venue) IsOpen() bool { return v.Status == VenueOpen }
