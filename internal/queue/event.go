// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationsQueue is the durable queue notification events are
// published to.
const NotificationsQueue = "notifications"

// NotificationEvent is published for every user facing notification the
// booking core emits.  It carries the rendered title and body so
// downstream consumers (mailers, push gateways, the log consumer) do not
// need to query the primary database.
type NotificationEvent struct {
    ID        string `json:"id"`
    UserID    uint64 `json:"user_id"`
    Category  string `json:"category"`
    Title     string `json:"title"`
    Body      string `json:"body"`
    CreatedAt string `json:"created_at"`
}
