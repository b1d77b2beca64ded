package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository/memstore"
)

func TestLoadFile(t *testing.T) {
	st := memstore.New(time.Second)
	venues, err := LoadFile("testdata/venues.yaml", st)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(venues) != 2 {
		t.Fatalf("got %d venues, want 2", len(venues))
	}
	court, room := venues[0], venues[1]
	if court.Status != model.VenueOpen || court.DefaultCapacity != 4 {
		t.Fatalf("court = %+v", court)
	}
	if room.Status != model.VenueMaintenance {
		t.Fatalf("room status = %s, want MAINTENANCE", room.Status)
	}

	ctx := context.Background()
	rule, err := st.GetBookingRule(ctx, court.ID, model.RoleEmployee)
	if err != nil {
		t.Fatalf("GetBookingRule: %v", err)
	}
	if rule.MinDuration != 30*time.Minute || rule.MaxDuration != 2*time.Hour || rule.MaxPerDay != 2 || rule.MaxPerWeek != 5 {
		t.Fatalf("rule = %+v", rule)
	}
	blocks, err := st.ListBlockedIntervals(ctx, court.ID, time.Monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Start != 12*time.Hour || blocks[0].End != 13*time.Hour || blocks[0].UserID != 99 {
		t.Fatalf("blocks = %+v", blocks)
	}
	open, err := st.ListOpenVenues(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].ID != court.ID {
		t.Fatalf("open venues = %+v, want only the court", open)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "venues: []\n",
		"unknown key":    "venues:\n  - name: A\n    capacity: 1\n    close_hour: 10\n    colour: red\n",
		"zero capacity":  "venues:\n  - name: A\n    capacity: 0\n    close_hour: 10\n",
		"hours reversed": "venues:\n  - name: A\n    capacity: 1\n    open_hour: 10\n    close_hour: 9\n",
		"bad role":       "venues:\n  - name: A\n    capacity: 1\n    close_hour: 10\n    rules:\n      - role: GUEST\n",
		"bad status":     "venues:\n  - name: A\n    capacity: 1\n    close_hour: 10\n    status: SHUT\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(doc)); err == nil {
				t.Fatal("Parse accepted an invalid fixture")
			}
		})
	}
}

func TestApplyRejectsBadBlocks(t *testing.T) {
	for _, b := range []Block{
		{Weekday: "funday", Start: "10:00", End: "11:00"},
		{Weekday: "monday", Start: "10:00", End: "09:00"},
		{Weekday: "monday", Start: "ten", End: "11:00"},
	} {
		f := File{Venues: []Venue{{Name: "A", Capacity: 1, CloseHour: 10, Blocks: []Block{b}}}}
		if _, err := Apply(f, memstore.New(time.Second)); err == nil {
			t.Errorf("Apply accepted block %+v", b)
		}
	}
}

func TestOffset(t *testing.T) {
	for in, want := range map[string]time.Duration{"00:00": 0, "09:30": 9*time.Hour + 30*time.Minute, "24:00": 24 * time.Hour} {
		got, err := offset(in)
		if err != nil || got != want {
			t.Errorf("offset(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
