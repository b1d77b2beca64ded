package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerConfig configures StartNotificationConsumer.
type ConsumerConfig struct {
    URL    string // broker url
    Queue  string // defaults to NotificationsQueue
    LogDir string // defaults to "logs"
}

// StartNotificationConsumer connects to RabbitMQ, declares the
// notifications queue (durable) and appends every event to
// <LogDir>/notifications.log as one line.  It reconnects with
// exponential backoff until ctx is cancelled, which is the only way it
// returns.  Malformed messages are rejected without requeue so a bad
// payload cannot wedge the queue.
func StartNotificationConsumer(ctx context.Context, cfg ConsumerConfig) error {
    if cfg.Queue == "" {
        cfg.Queue = NotificationsQueue
    }
    if cfg.LogDir == "" {
        cfg.LogDir = "logs"
    }
    logger := log.New("notify-consumer")

    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            logger.Warnf("failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, cfg, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warnf("consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-t.C:
        return true
    case <-ctx.Done():
        return false
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, logger *log.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warnf("set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(cfg.LogDir, d.Body); err != nil {
                logger.Errorf("handle message failed: %v", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(dir string, body []byte) error {
    var ev NotificationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.UserID == 0 || ev.Category == "" {
        return errors.New("event without user or category")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev NotificationEvent) string {
    body := strings.ReplaceAll(ev.Body, "\n", " ")
    return fmt.Sprintf("[%s] %s | id=%s | user_id=%d | title=%q | body=%q\n",
        ev.CreatedAt, ev.Category, ev.ID, ev.UserID, ev.Title, body)
}
