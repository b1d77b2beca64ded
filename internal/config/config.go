package config // package config loads application configuration from environment variables

import (
    "os"
    "time"

    "github.com/labstack/gommon/log"

    "github.com/iliyamo/venue-reservation/internal/booking"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings live in DBConfig because
// they are only required when the MySQL store is selected.
type Config struct {
    Env           string        // APP_ENV (dev, test, prod)
    Port          string        // APP_PORT
    JWTSecret     string        // JWT_SECRET, verifies access tokens
    CheckInSecret string        // CHECKIN_TOKEN_SECRET, falls back to JWT_SECRET
    RabbitURL     string        // RABBITMQ_URL, empty disables AMQP delivery
    NotifyQueue   string        // NOTIFY_QUEUE
    LogDir        string        // NOTIFY_LOG_DIR, where the consumer appends
    SweepInterval time.Duration // SWEEP_INTERVAL
    SweepLocks    bool          // SWEEP_LOCKS, lease sweeps through Redis

    CancellationDeadline time.Duration
    ConfirmationDeadline time.Duration
    AutoConfirmWindow    time.Duration
    CheckInWindow        time.Duration
    WaitlistHorizon      time.Duration
    ReminderLead         time.Duration
    SlotGranule          time.Duration
    MaterializeDays      int
    RetryAttempts        int
    RetryBackoff         time.Duration
}

// DBConfig holds the MySQL connection settings.
type DBConfig struct {
    User     string
    Pass     string
    Host     string
    Port     string
    Name     string
    LockWait time.Duration // LOCK_WAIT_TIMEOUT, applied as innodb_lock_wait_timeout
}

// Load reads configuration values from environment variables and returns a
// Config.  JWT_SECRET is required; everything else has a default.
func Load() Config {
    jwtSecret := must("JWT_SECRET")
    return Config{
        Env:           envStr("APP_ENV", "dev"),
        Port:          envStr("APP_PORT", "8080"),
        JWTSecret:     jwtSecret,
        CheckInSecret: envStr("CHECKIN_TOKEN_SECRET", jwtSecret),
        RabbitURL:     os.Getenv("RABBITMQ_URL"),
        NotifyQueue:   envStr("NOTIFY_QUEUE", "notifications"),
        LogDir:        envStr("NOTIFY_LOG_DIR", "logs"),
        SweepInterval: envDur("SWEEP_INTERVAL", time.Minute),
        SweepLocks:    envBool("SWEEP_LOCKS", true),

        CancellationDeadline: hours("CANCELLATION_DEADLINE_HOURS", 2),
        ConfirmationDeadline: hours("CONFIRMATION_DEADLINE_HOURS", 24),
        AutoConfirmWindow:    hours("AUTO_CONFIRM_WINDOW_HOURS", 1),
        CheckInWindow:        minutes("CHECKIN_WINDOW_MIN", 15),
        WaitlistHorizon:      hours("WAITLIST_HORIZON_HOURS", 1),
        ReminderLead:         hours("REMINDER_LEAD_HOURS", 24),
        SlotGranule:          minutes("SLOT_GRANULE_MIN", 60),
        MaterializeDays:      envInt("SLOT_MATERIALIZE_DAYS", 14),
        RetryAttempts:        envInt("RETRY_ATTEMPTS", 3),
        RetryBackoff:         envDur("RETRY_BACKOFF", 50*time.Millisecond),
    }
}

// LoadDB reads the database settings.  Missing required keys are fatal.
func LoadDB() DBConfig {
    return DBConfig{
        User:     must("DB_USER"),
        Pass:     os.Getenv("DB_PASS"), // empty allowed
        Host:     must("DB_HOST"),
        Port:     must("DB_PORT"),
        Name:     must("DB_NAME"),
        LockWait: envDur("LOCK_WAIT_TIMEOUT", 5*time.Second),
    }
}

// Booking converts the loaded values into the core's configuration.
// Values that are not positive keep the core defaults.
func (c Config) Booking() booking.Config {
    b := booking.DefaultConfig()
    set := func(dst *time.Duration, v time.Duration) {
        if v > 0 {
            *dst = v
        }
    }
    set(&b.CancellationDeadline, c.CancellationDeadline)
    set(&b.ConfirmationDeadline, c.ConfirmationDeadline)
    set(&b.AutoConfirmWindow, c.AutoConfirmWindow)
    set(&b.CheckInWindow, c.CheckInWindow)
    set(&b.WaitlistHorizon, c.WaitlistHorizon)
    set(&b.ReminderLead, c.ReminderLead)
    set(&b.SlotGranule, c.SlotGranule)
    set(&b.RetryBackoff, c.RetryBackoff)
    if c.MaterializeDays > 0 {
        b.MaterializeDays = c.MaterializeDays
    }
    if c.RetryAttempts > 0 {
        b.RetryAttempts = c.RetryAttempts
    }
    return b
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func hours(k string, d int) time.Duration   { return time.Duration(envInt(k, d)) * time.Hour }
func minutes(k string, d int) time.Duration { return time.Duration(envInt(k, d)) * time.Minute }
