package notify

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/venue-reservation/internal/clock"
    "github.com/iliyamo/venue-reservation/internal/queue"
)

// AMQPSink publishes notifications to a durable RabbitMQ queue as
// queue.NotificationEvent JSON.  The connection is opened lazily and
// re-opened after a failed publish, so a broker outage only costs the
// notifications sent while it lasts.
type AMQPSink struct {
    url   string
    queue string
    clock clock.Clock

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPSink returns a sink publishing to queueName on the broker at url.
func NewAMQPSink(url, queueName string, clk clock.Clock) *AMQPSink {
    if queueName == "" {
        queueName = queue.NotificationsQueue
    }
    return &AMQPSink{url: url, queue: queueName, clock: clk}
}

// Notify publishes n as a persistent message.
func (s *AMQPSink) Notify(ctx context.Context, n Notification) error {
    now := s.clock.Now()
    ev := queue.NotificationEvent{
        ID:        uuid.NewString(),
        UserID:    n.UserID,
        Category:  string(n.Category),
        Title:     n.Title,
        Body:      n.Body,
        CreatedAt: now.Format("2006-01-02T15:04:05Z07:00"),
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }

    s.mu.Lock()
    defer s.mu.Unlock()
    ch, err := s.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.ID,
        Timestamp:    now,
        Type:         ev.Category,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        s.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        s.resetLocked()
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}

// channel returns an open channel, dialing and declaring the queue when
// needed.  Caller holds s.mu.
func (s *AMQPSink) channel() (*amqp.Channel, error) {
    if s.ch != nil && !s.ch.IsClosed() && s.conn != nil && !s.conn.IsClosed() {
        return s.ch, nil
    }
    s.resetLocked()
    conn, err := amqp.Dial(s.url)
    if err != nil {
        return nil, fmt.Errorf("rabbitmq: dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
    }
    s.conn, s.ch = conn, ch
    return ch, nil
}

func (s *AMQPSink) resetLocked() {
    if s.ch != nil {
        _ = s.ch.Close()
    }
    if s.conn != nil {
        _ = s.conn.Close()
    }
    s.ch, s.conn = nil, nil
}

// Close releases the broker connection.
func (s *AMQPSink) Close() error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.resetLocked()
    return nil
}
