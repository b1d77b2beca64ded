// Package seed loads venue fixtures from YAML into a store that accepts
// direct inserts, such as the in-memory gateway used for local runs.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// Target receives the seeded rows.
type Target interface {
	AddVenue(v model.Venue) model.Venue
	AddRule(r model.BookingRule)
	AddBlock(b model.BlockedInterval)
}

// File is the top-level fixture document.
type File struct {
	Venues []Venue `yaml:"venues" validate:"required,min=1,dive"`
}

type Venue struct {
	Name      string  `yaml:"name" validate:"required"`
	Capacity  int     `yaml:"capacity" validate:"gt=0"`
	Status    string  `yaml:"status" validate:"omitempty,oneof=OPEN CLOSED MAINTENANCE"`
	OpenHour  int     `yaml:"open_hour" validate:"gte=0,lte=23"`
	CloseHour int     `yaml:"close_hour" validate:"gtfield=OpenHour,lte=24"`
	Rules     []Rule  `yaml:"rules" validate:"dive"`
	Blocks    []Block `yaml:"blocks" validate:"dive"`
}

type Rule struct {
	Role        string        `yaml:"role" validate:"required,oneof=ADMIN LEADER EMPLOYEE"`
	MinDuration time.Duration `yaml:"min_duration" validate:"gte=0"`
	MaxDuration time.Duration `yaml:"max_duration" validate:"gte=0"`
	MaxPerDay   int           `yaml:"max_per_day" validate:"gte=0"`
	MaxPerWeek  int           `yaml:"max_per_week" validate:"gte=0"`
	MaxPerMonth int           `yaml:"max_per_month" validate:"gte=0"`
}

// Block is a weekly administrator block; Start and End are "15:04".
type Block struct {
	Weekday string `yaml:"weekday" validate:"required"`
	Start   string `yaml:"start" validate:"required"`
	End     string `yaml:"end" validate:"required"`
	UserID  uint64 `yaml:"user_id"`
}

var validate = validator.New()

// Parse decodes and validates a fixture document.  Unknown keys are errors.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("seed: decode: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return File{}, fmt.Errorf("seed: %w", err)
	}
	return f, nil
}

// LoadFile parses path and applies it to t.
func LoadFile(path string, t Target) ([]model.Venue, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	f, err := Parse(fh)
	if err != nil {
		return nil, err
	}
	return Apply(f, t)
}

// Apply inserts every venue with its rules and blocks, returning the
// venues with their assigned ids.
func Apply(f File, t Target) ([]model.Venue, error) {
	out := make([]model.Venue, 0, len(f.Venues))
	for _, fv := range f.Venues {
		blocks := make([]model.BlockedInterval, 0, len(fv.Blocks))
		for _, fb := range fv.Blocks {
			b, err := fb.interval()
			if err != nil {
				return out, fmt.Errorf("seed: venue %q: %w", fv.Name, err)
			}
			blocks = append(blocks, b)
		}
		status := model.VenueStatus(fv.Status)
		if status == "" {
			status = model.VenueOpen
		}
		v := t.AddVenue(model.Venue{
			Name:            fv.Name,
			TotalCapacity:   fv.Capacity,
			DefaultCapacity: fv.Capacity,
			Status:          status,
			OpenHour:        fv.OpenHour,
			CloseHour:       fv.CloseHour,
		})
		for _, r := range fv.Rules {
			t.AddRule(model.BookingRule{
				VenueID:     v.ID,
				Role:        model.Role(r.Role),
				MinDuration: r.MinDuration,
				MaxDuration: r.MaxDuration,
				MaxPerDay:   r.MaxPerDay,
				MaxPerWeek:  r.MaxPerWeek,
				MaxPerMonth: r.MaxPerMonth,
			})
		}
		for _, b := range blocks {
			b.VenueID = v.ID
			t.AddBlock(b)
		}
		out = append(out, v)
	}
	return out, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

func (b Block) interval() (model.BlockedInterval, error) {
	day, ok := weekdays[strings.ToLower(b.Weekday)]
	if !ok {
		return model.BlockedInterval{}, fmt.Errorf("unknown weekday %q", b.Weekday)
	}
	start, err := offset(b.Start)
	if err != nil {
		return model.BlockedInterval{}, err
	}
	end, err := offset(b.End)
	if err != nil {
		return model.BlockedInterval{}, err
	}
	if end <= start {
		return model.BlockedInterval{}, fmt.Errorf("block %s-%s ends before it starts", b.Start, b.End)
	}
	return model.BlockedInterval{UserID: b.UserID, Weekday: day, Start: start, End: end}, nil
}

func offset(s string) (time.Duration, error) {
	if s == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
