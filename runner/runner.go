// Package runner drives a bank engine through time, either as fast as
// possible for a fixed number of days or on a cron schedule until stopped.
// After every simulated day a random customer event may fire.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/events"
	"github.com/rustyeddy/banksim/rng"
)

// DefaultEventProbability is the chance of a customer event after each day.
const DefaultEventProbability = 0.5

// Day is the outcome of one tick.
type Day struct {
	Report bank.DayReport
	Event  string // empty when no event fired
}

type Runner struct {
	engine    *bank.Engine
	gen       *events.Generator
	src       rng.Source
	eventProb float64
	log       zerolog.Logger
	onDay     func(Day)
}

type Option func(*Runner)

// WithEventProbability sets the chance of an event after each day.
func WithEventProbability(p float64) Option { return func(r *Runner) { r.eventProb = p } }

func WithLogger(l zerolog.Logger) Option { return func(r *Runner) { r.log = l } }

// OnDay registers a callback invoked after every tick.
func OnDay(fn func(Day)) Option { return func(r *Runner) { r.onDay = fn } }

// New returns a runner. src decides whether an event fires; gen decides
// which one.
func New(e *bank.Engine, gen *events.Generator, src rng.Source, opts ...Option) *Runner {
	r := &Runner{
		engine:    e,
		gen:       gen,
		src:       src,
		eventProb: DefaultEventProbability,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tick advances the engine one day and then maybe fires an event.
func (r *Runner) Tick(ctx context.Context) (Day, error) {
	rep, err := r.engine.AdvanceDay(ctx)
	if err != nil {
		return Day{Report: rep}, fmt.Errorf("day %d: %w", rep.Day, err)
	}
	d := Day{Report: rep}

	if r.gen != nil && rng.Chance(r.src, r.eventProb) {
		msg, err := r.gen.Fire(ctx, r.engine)
		if err != nil {
			return d, fmt.Errorf("day %d: event: %w", rep.Day, err)
		}
		d.Event = msg
		r.log.Info().Int("day", rep.Day).Msg(msg)
	}

	if r.onDay != nil {
		r.onDay(d)
	}
	return d, nil
}

// Batch runs days ticks back to back. It stops early when ctx is done and
// returns how many days completed.
func (r *Runner) Batch(ctx context.Context, days int) (int, error) {
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := r.Tick(ctx); err != nil {
			return i, err
		}
	}
	r.log.Info().Int("days", days).Int("day", r.engine.Day()).
		Float64("balance", r.engine.Balance()).Msg("batch complete")
	return days, nil
}

// Realtime ticks on the cron schedule spec (standard five-field syntax or
// descriptors such as "@every 2s") until ctx is done or a tick fails. A
// tick that is still running when the next one is due is skipped.
func (r *Runner) Realtime(ctx context.Context, spec string) error {
	cl := cron.PrintfLogger(&r.log)
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	failed := make(chan error, 1)
	if _, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case failed <- err:
			default:
			}
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	r.log.Info().Str("tick", spec).Msg("realtime simulation started")
	c.Start()
	defer func() {
		<-c.Stop().Done()
		r.log.Info().Int("day", r.engine.Day()).Msg("realtime simulation stopped")
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-failed:
		return err
	}
}
