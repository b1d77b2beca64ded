// Package sweep runs the periodic maintenance jobs of the booking core
// on clock tickers.  When a Locker is configured only one process in a
// fleet runs a given job per tick.
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/clock"
)

// Job is one periodic sweep.  Run reports how many rows it touched.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler fires registered jobs on their intervals until its context
// is cancelled.
type Scheduler struct {
	clock  clock.Clock
	locker Locker
	log    *log.Logger
	jobs   []Job
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocker makes every run acquire a named lock first.
func WithLocker(l Locker) Option { return func(s *Scheduler) { s.locker = l } }

// WithLogger replaces the default "sweep" logger.
func WithLogger(l *log.Logger) Option { return func(s *Scheduler) { s.log = l } }

// New returns a Scheduler driven by clk.
func New(clk clock.Clock, opts ...Option) *Scheduler {
	s := &Scheduler{clock: clk, log: log.New("sweep")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add registers a job.  Jobs added after Start are not scheduled.
func (s *Scheduler) Add(j Job) { s.jobs = append(s.jobs, j) }

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Start launches one goroutine per job.  Tickers are created before
// Start returns, so a fake clock advanced afterwards fires them.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		t := s.clock.NewTicker(j.Interval)
		s.wg.Add(1)
		go func(j Job, t *clock.Ticker) {
			defer s.wg.Done()
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					s.run(ctx, j)
				}
			}
		}(j, t)
	}
	s.log.Infof("started %d sweeps", len(s.jobs))
}

// Wait blocks until every job goroutine has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

// RunOnce runs the named job immediately, honouring the locker.  It
// reports false when no job has that name.
func (s *Scheduler) RunOnce(ctx context.Context, name string) bool {
	for _, j := range s.jobs {
		if j.Name == name {
			s.run(ctx, j)
			return true
		}
	}
	return false
}

func (s *Scheduler) run(ctx context.Context, j Job) {
	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, "sweep:"+j.Name, j.Interval)
		if err != nil {
			s.log.Warnf("%s: lock: %v", j.Name, err)
			return
		}
		if !ok {
			s.log.Debugf("%s: held elsewhere, skipping", j.Name)
			return
		}
		defer unlock()
	}
	start := s.clock.Now()
	n, err := j.Run(ctx)
	if err != nil {
		s.log.Errorf("%s: %v (processed %d)", j.Name, err, n)
		return
	}
	if n > 0 {
		s.log.Infof("%s: processed %d in %s", j.Name, n, s.clock.Now().Sub(start))
	}
}

// BookingJobs returns the standard sweeps of svc, each on interval.
func BookingJobs(svc *booking.Service, interval time.Duration) []Job {
	return []Job{
		{Name: "auto-confirm", Interval: interval, Run: svc.AutoConfirm},
		{Name: "expire-waiting", Interval: interval, Run: svc.ExpireWaiting},
		{Name: "reminders", Interval: interval, Run: svc.SendReminders},
		{Name: "materialize-slots", Interval: interval, Run: svc.MaterializeSlots},
	}
}
