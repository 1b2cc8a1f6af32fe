package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cuemby/irrelay/pkg/event"
	"github.com/cuemby/irrelay/pkg/log"
	"github.com/cuemby/irrelay/pkg/metrics"
)

var (
	// ErrInputClosed is returned by Run when the classified event channel
	// closes before a stop was requested
	ErrInputClosed = errors.New("classified event channel closed")

	// ErrHubStopped is returned when a request reaches a hub that has exited
	ErrHubStopped = errors.New("hub stopped")
)

// Message is a registry control message. The set of implementations is closed.
type Message interface {
	message()
}

// Init registers a subscriber
type Init struct {
	Subscriber *Subscriber
}

// Close deregisters the subscriber with the given id
type Close struct {
	ID uint64
}

// snapshot asks for the registered ids
type snapshot struct {
	reply chan []uint64
}

func (Init) message()     {}
func (Close) message()    {}
func (snapshot) message() {}

// Hub owns the subscriber registry and fans classified events out to every
// subscriber. Registry edits and fan-out passes run on the same goroutine, so
// each pass sees a consistent set of subscribers.
type Hub struct {
	control     chan Message
	subscribers map[uint64]*Subscriber
	done        chan struct{}
	logger      zerolog.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		control:     make(chan Message),
		subscribers: make(map[uint64]*Subscriber),
		done:        make(chan struct{}),
		logger:      log.WithComponent("broadcast"),
	}
}

// Register sends Init for sub. If the hub has already stopped the
// subscriber's queue is closed so its writer exits.
func (h *Hub) Register(sub *Subscriber) error {
	select {
	case h.control <- Init{Subscriber: sub}:
		return nil
	case <-h.done:
		close(sub.queue)
		return ErrHubStopped
	}
}

// Deregister sends Close for id
func (h *Hub) Deregister(id uint64) error {
	return h.send(Close{ID: id})
}

// Subscribers returns the registered ids in ascending order
func (h *Hub) Subscribers(ctx context.Context) ([]uint64, error) {
	reply := make(chan []uint64, 1)
	if err := h.send(snapshot{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case ids := <-reply:
		return ids, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) send(msg Message) error {
	select {
	case h.control <- msg:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Run processes control messages and broadcasts events from in until ctx is
// cancelled or in is closed. All subscriber queues are closed on return.
func (h *Hub) Run(ctx context.Context, in <-chan event.Event) error {
	defer close(h.done)
	defer h.closeAll()

	h.logger.Info().Msg("broadcast started")
	metrics.UpdateComponent(metrics.ComponentBroadcast, true, "")
	defer metrics.UpdateComponent(metrics.ComponentBroadcast, false, "stopped")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("broadcast stopped")
			return nil

		case msg := <-h.control:
			h.apply(msg)

		case ev, ok := <-in:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				h.logger.Warn().Msg("classified event channel closed unexpectedly")
				return ErrInputClosed
			}
			h.broadcast(ev)
		}
	}
}

func (h *Hub) apply(msg Message) {
	switch m := msg.(type) {
	case Init:
		h.subscribers[m.Subscriber.ID] = m.Subscriber
		h.logger.Info().
			Uint64("subscriber_id", m.Subscriber.ID).
			Int("clients", len(h.subscribers)).
			Msg("subscriber registered")

	case Close:
		sub, ok := h.subscribers[m.ID]
		if !ok {
			return
		}
		delete(h.subscribers, m.ID)
		close(sub.queue)
		h.logger.Info().
			Uint64("subscriber_id", m.ID).
			Int("clients", len(h.subscribers)).
			Msg("subscriber removed")

	case snapshot:
		ids := make([]uint64, 0, len(h.subscribers))
		for id := range h.subscribers {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		m.reply <- ids

	default:
		panic(fmt.Sprintf("broadcast: unhandled message %T", msg))
	}

	metrics.Subscribers.Set(float64(len(h.subscribers)))
}

func (h *Hub) broadcast(ev event.Event) {
	line := ev.Encode()
	metrics.BroadcastEventsTotal.Inc()
	h.logger.Debug().Str("event", line).Int("clients", len(h.subscribers)).Msg("broadcast")

	for id, sub := range h.subscribers {
		err := sub.enqueue(line)
		if err == nil {
			continue
		}

		// A gone subscriber was already counted by its writer
		if errors.Is(err, ErrQueueFull) {
			sub.Leave()
			metrics.SubscriberDropsTotal.WithLabelValues(metrics.ReasonQueue).Inc()
		}
		h.logger.Warn().Err(err).Uint64("subscriber_id", id).Msg("dropping subscriber")
		h.apply(Close{ID: id})
	}
}

func (h *Hub) closeAll() {
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		close(sub.queue)
	}
	metrics.Subscribers.Set(0)
}
