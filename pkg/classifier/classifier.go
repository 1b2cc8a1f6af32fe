package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/irrelay/pkg/event"
	"github.com/cuemby/irrelay/pkg/log"
	"github.com/cuemby/irrelay/pkg/metrics"
)

// ErrSourceClosed is returned by Run when the raw event channel closes
// before a stop was requested
var ErrSourceClosed = errors.New("raw event channel closed")

// Classifier runs the Machine against a stream of raw events
type Classifier struct {
	timing  Timing
	machine *Machine
	logger  zerolog.Logger
}

// New creates a classifier with the given timing
func New(timing Timing) *Classifier {
	return &Classifier{
		timing:  timing,
		machine: NewMachine(timing),
		logger:  log.WithComponent("classifier"),
	}
}

// Run classifies events from in and sends the results to out until ctx is
// cancelled or in is closed. out is closed when Run returns. A press still
// pending at cancellation is discarded.
func (c *Classifier) Run(ctx context.Context, in <-chan event.Event, out chan<- event.Event) error {
	defer close(out)

	start := time.Now()
	c.logger.Info().Msg("classifier started")
	metrics.UpdateComponent(metrics.ComponentClassifier, true, "")
	defer metrics.UpdateComponent(metrics.ComponentClassifier, false, "stopped")

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	timerC := c.arm(timer, time.Now())

	for {
		select {
		case <-ctx.Done():
			if ev, ok := c.machine.Discard(); ok {
				metrics.PendingDiscardedTotal.Inc()
				c.logger.Info().Str("event", ev.Encode()).Msg("discarding pending press on shutdown")
			}
			c.logger.Info().Msg("classifier stopped")
			return nil

		case ev, ok := <-in:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Warn().Msg("raw event channel closed unexpectedly")
				return ErrSourceClosed
			}

			now := time.Now()
			c.logger.Debug().
				Str("event", ev.Encode()).
				Dur("elapsed", now.Sub(start)).
				Msg("raw event")

			for _, em := range c.receive(ev, now) {
				if !c.emit(ctx, out, em) {
					return nil
				}
			}
			timerC = c.arm(timer, now)

		case <-timerC:
			now := time.Now()
			if em, ok := c.machine.Expire(now); ok {
				if !c.emit(ctx, out, em) {
					return nil
				}
			} else if _, busy := c.machine.Pending(); !busy {
				c.logger.Debug().Dur("elapsed", now.Sub(start)).Msg("heartbeat")
			}
			timerC = c.arm(timer, now)
		}
	}
}

// receive applies one raw report. A press whose settle deadline passed while
// the report was queued behind the timer is flushed first, so a late repeat
// never extends it.
func (c *Classifier) receive(ev event.Event, now time.Time) []Emission {
	var out []Emission
	if em, ok := c.machine.Expire(now); ok {
		out = append(out, em)
	}

	if _, busy := c.machine.Pending(); !busy && ev.Repeat != 0 {
		metrics.OrphanRepeatsTotal.Inc()
		c.logger.Debug().Str("event", ev.Encode()).Msg("dropping repeat without press")
	}

	if em, ok := c.machine.Handle(ev, now); ok {
		out = append(out, em)
	}
	return out
}

// arm points the timer at the current deadline: the settle deadline while a
// press is pending, the next heartbeat while idle. A nil channel blocks
// forever and stands for "no deadline".
func (c *Classifier) arm(timer *time.Timer, now time.Time) <-chan time.Time {
	deadline := c.machine.Deadline()
	if deadline.IsZero() {
		if c.timing.Heartbeat <= 0 {
			timer.Stop()
			return nil
		}
		deadline = now.Add(c.timing.Heartbeat)
	}

	timer.Reset(time.Until(deadline))
	return timer.C
}

func (c *Classifier) emit(ctx context.Context, out chan<- event.Event, em Emission) bool {
	metrics.ClassifiedTotal.WithLabelValues(string(em.Kind)).Inc()
	metrics.PressDuration.WithLabelValues(string(em.Kind)).Observe(em.Held.Seconds())

	c.logger.Info().
		Str("event", em.Event.Encode()).
		Str("kind", string(em.Kind)).
		Dur("held", em.Held).
		Msg("emit")

	select {
	case out <- em.Event:
		return true
	case <-ctx.Done():
		return false
	}
}
