package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/clock"
	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/database"
	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/notify"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/repository/memstore"
	"github.com/iliyamo/venue-reservation/internal/router"
	"github.com/iliyamo/venue-reservation/internal/seed"
	"github.com/iliyamo/venue-reservation/internal/sweep"
	"github.com/iliyamo/venue-reservation/internal/token"
)

type options struct {
	store    string
	seedFile string
	migrate  bool
	sweeps   bool
	consumer bool
	devToken string
}

func main() {
	var opts options
	flag.StringVar(&opts.store, "store", "mysql", "persistence backend: mysql or memory")
	flag.StringVar(&opts.seedFile, "seed", "", "YAML venue fixtures loaded into the memory store")
	flag.BoolVar(&opts.migrate, "migrate", false, "create missing MySQL tables before serving")
	flag.BoolVar(&opts.sweeps, "sweeps", true, "run the periodic sweeps in this process")
	flag.BoolVar(&opts.consumer, "consumer", false, "run the notification consumer in this process")
	flag.StringVar(&opts.devToken, "dev-token", "", "print an access token for USER_ID:ROLE and keep serving")
	flag.Parse()

	logger := log.New("server")
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf(".env: %v", err)
	}
	if err := run(opts, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(opts options, logger *log.Logger) error {
	cfg := config.Load()
	clk := clock.Real()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, ping, closeStore, err := openStore(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unreachable: rate limiting, caching and sweep leases disabled")
	} else {
		defer rdb.Close()
	}

	var sink notify.Sink = notify.LogSink{Logger: log.New("notify")}
	if cfg.RabbitURL != "" {
		amqpSink := notify.NewAMQPSink(cfg.RabbitURL, cfg.NotifyQueue, clk)
		defer amqpSink.Close()
		sink = amqpSink
	}
	async := notify.NewAsync(sink, logger, 5*time.Second)

	svc := booking.NewService(store,
		booking.WithClock(clk),
		booking.WithSink(async),
		booking.WithConfig(cfg.Booking()),
		booking.WithCheckInTokens(token.NewCheckInSigner([]byte(cfg.CheckInSecret), clk)),
	)

	if opts.devToken != "" {
		if err := printDevToken(cfg.JWTSecret, clk, opts.devToken); err != nil {
			return err
		}
	}

	sched := sweep.New(clk)
	if opts.sweeps {
		if rdb != nil && cfg.SweepLocks {
			sched = sweep.New(clk, sweep.WithLocker(sweep.NewRedisLocker(rdb, "venue")))
		}
		for _, j := range sweep.BookingJobs(svc, cfg.SweepInterval) {
			sched.Add(j)
		}
		sched.RunOnce(ctx, "materialize-slots")
		sched.Start(ctx)
	}

	if opts.consumer && cfg.RabbitURL != "" {
		go runConsumer(ctx, queue.ConsumerConfig{URL: cfg.RabbitURL, Queue: cfg.NotifyQueue, LogDir: cfg.LogDir}, logger)
	}

	e := newServer(svc, clk, cfg, rdb, ping)
	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s, store=%s)", addr, cfg.Env, opts.store)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = e.Shutdown(shutdownCtx)
	sched.Wait()
	async.Wait()
	return err
}

func newServer(svc *booking.Service, clk clock.Clock, cfg config.Config, rdb *redis.Client, ping func(context.Context) error) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover(), echomw.Logger())

	rlCfg, cacheCfg := config.LoadRateLimitConfig(), config.LoadCacheConfig()
	var (
		bucket  middleware.Bucket
		backend middleware.CacheBackend
	)
	if rdb != nil {
		bucket = middleware.NewRedisBucket(rdb, rlCfg)
		backend = middleware.NewRedisCacheBackend(rdb)
	}

	rh := handler.NewReservationHandler(svc)
	vh := handler.NewVenueHandler(svc, clk)
	auth := router.Auth{Secret: cfg.JWTSecret, Clock: clk}

	router.RegisterRoutes(e, ping)
	router.RegisterPublic(e, vh, rh, middleware.NewResponseCache(cacheCfg, backend))
	router.RegisterReservations(e, rh, auth, middleware.NewTokenBucket(rlCfg, bucket, clk))
	router.RegisterAdmin(e, vh, auth)
	return e
}

// runConsumer runs the notification consumer until ctx ends.  Shutdown
// by signal is silent; any other exit is logged.
func runConsumer(ctx context.Context, cfg queue.ConsumerConfig, logger *log.Logger) {
	if err := queue.StartNotificationConsumer(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("notification consumer stopped: %v", err)
	}
}

// openStore returns the selected gateway, its health probe and a closer.
func openStore(ctx context.Context, opts options, logger *log.Logger) (repository.Store, func(context.Context) error, func(), error) {
	switch opts.store {
	case "memory":
		st := memstore.New(5 * time.Second)
		if opts.seedFile != "" {
			venues, err := seed.LoadFile(opts.seedFile, st)
			if err != nil {
				return nil, nil, nil, err
			}
			logger.Infof("seeded %d venue(s) from %s", len(venues), opts.seedFile)
		}
		return st, nil, func() {}, nil
	case "mysql":
		dbCfg := config.LoadDB()
		db, err := database.Open(dbCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		if opts.migrate {
			if err := database.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, nil, nil, err
			}
		}
		return repository.NewSQLStore(db, dbCfg.LockWait), db.PingContext, func() { _ = db.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store %q", opts.store)
	}
}

// printDevToken mints a 24h access token for local testing.
func printDevToken(secret string, clk clock.Clock, spec string) error {
	uid, role, ok := strings.Cut(spec, ":")
	id, err := strconv.ParseUint(uid, 10, 64)
	if !ok || err != nil {
		return fmt.Errorf("dev-token wants USER_ID:ROLE, got %q", spec)
	}
	tok, err := token.NewAccessToken(secret, clk, id, model.ParseRole(role), 24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(tok.Token)
	return nil
}
