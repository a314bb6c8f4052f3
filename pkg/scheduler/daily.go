package scheduler

import (
	"context"
	"fmt"
	"time"

	"InOut/pkg/logger"
)

// Job is invoked once per scheduled trading day with the fire time.
type Job func(ctx context.Context, at time.Time) error

// Daily fires a job on weekdays at a fixed offset after the market open,
// in the exchange's timezone. Exchange holidays are not modelled; the job
// sees no new bars on those days.
type Daily struct {
	loc    *time.Location
	hour   int
	minute int
	delay  time.Duration
	log    *logger.Logger
	now    func() time.Time
}

// NewDaily parses open as HH:MM in timezone tz.
func NewDaily(tz, open string, delay time.Duration, log *logger.Logger) (*Daily, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	t, err := time.Parse("15:04", open)
	if err != nil {
		return nil, fmt.Errorf("parse market open %q: %w", open, err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Daily{loc: loc, hour: t.Hour(), minute: t.Minute(), delay: delay, log: log, now: time.Now}, nil
}

// Next returns the first fire time strictly after now.
func (d *Daily) Next(now time.Time) time.Time {
	local := now.In(d.loc)
	y, m, day := local.Date()
	for i := 0; i < 8; i++ {
		at := time.Date(y, m, day+i, d.hour, d.minute, 0, 0, d.loc).Add(d.delay)
		if wd := at.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if at.After(now) {
			return at
		}
	}
	// unreachable: a week always holds a weekday after now
	return now.Add(24 * time.Hour)
}

// Run blocks, firing job at each scheduled time until ctx is done. Job
// errors are logged and do not stop the loop.
func (d *Daily) Run(ctx context.Context, job Job) error {
	for {
		next := d.Next(d.now())
		d.log.Info("scheduler: next cycle", logger.Time("at", next))

		timer := time.NewTimer(next.Sub(d.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := job(ctx, next); err != nil {
			d.log.Error("scheduler: job failed", logger.Time("at", next), logger.Error(err))
		}
	}
}
