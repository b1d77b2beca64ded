package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// Details fills the notification templates.
type Details struct {
	ReservationID uint64
	VenueName     string
	StartsAt      time.Time
	EndsAt        time.Time
	Reason        string
}

type messageTemplate struct {
	title string
	body  *template.Template
}

var funcs = template.FuncMap{
	"when": func(t time.Time) string { return t.UTC().Format("Mon 02 Jan 2006 15:04 MST") },
	"hm":   func(t time.Time) string { return t.UTC().Format("15:04") },
}

func mustBody(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

var templates = map[Category]messageTemplate{
	CategoryConfirmation: {
		title: "Reservation confirmed",
		body:  mustBody("confirmation", `Your reservation #{{.ReservationID}} at {{.VenueName}} on {{when .StartsAt}}-{{hm .EndsAt}} is confirmed.`),
	},
	CategoryCancellation: {
		title: "Reservation cancelled",
		body:  mustBody("cancellation", `Your reservation #{{.ReservationID}} at {{.VenueName}} on {{when .StartsAt}} was cancelled.{{if .Reason}} Reason: {{.Reason}}.{{end}}`),
	},
	CategoryPromotion: {
		title: "A spot opened up",
		body:  mustBody("promotion", `A spot at {{.VenueName}} on {{when .StartsAt}}-{{hm .EndsAt}} became available and reservation #{{.ReservationID}} was created for you. Please confirm it.`),
	},
	CategoryWaitlisted: {
		title: "Added to the waiting list",
		body:  mustBody("waitlisted", `{{.VenueName}} is fully booked on {{when .StartsAt}}. You are on the waiting list and will be notified if a spot opens.`),
	},
	CategoryWaitlistExpiry: {
		title: "Waiting list entry expired",
		body:  mustBody("waitlist-expiry", `No spot opened up at {{.VenueName}} for {{when .StartsAt}}. Your waiting list entry has expired.`),
	},
	CategoryReminder: {
		title: "Upcoming reservation",
		body:  mustBody("reminder", `Reminder: reservation #{{.ReservationID}} at {{.VenueName}} starts {{when .StartsAt}}.`),
	},
	CategoryClosure: {
		title: "Venue unavailable",
		body:  mustBody("closure", `{{.VenueName}} is unavailable on {{when .StartsAt}}. Your reservation #{{.ReservationID}} was cancelled.{{if .Reason}} Reason: {{.Reason}}.{{end}}`),
	},
}

// Build renders the notification of category c for userID.
func Build(c Category, userID uint64, d Details) (Notification, error) {
	t, ok := templates[c]
	if !ok {
		return Notification{}, fmt.Errorf("notify: no template for category %q", c)
	}
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, d); err != nil {
		return Notification{}, fmt.Errorf("notify: render %s: %w", c, err)
	}
	return Notification{UserID: userID, Title: t.title, Body: buf.String(), Category: c}, nil
}
