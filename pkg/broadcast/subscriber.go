package broadcast

import (
	"errors"
	"sync"
)

// DefaultQueueSize is the number of lines buffered per subscriber
const DefaultQueueSize = 64

var (
	// ErrSubscriberGone is returned when the subscriber's writer has exited
	ErrSubscriberGone = errors.New("subscriber gone")

	// ErrQueueFull is returned when the subscriber is not draining its queue
	ErrQueueFull = errors.New("subscriber queue full")
)

// Subscriber is one output client as seen by the hub. The hub is the only
// sender on the queue and the only one to close it.
type Subscriber struct {
	ID uint64

	queue chan string
	gone  chan struct{}
	once  sync.Once
}

// NewSubscriber creates a subscriber with a queue of the given size
func NewSubscriber(id uint64, queueSize int) *Subscriber {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Subscriber{
		ID:    id,
		queue: make(chan string, queueSize),
		gone:  make(chan struct{}),
	}
}

// Lines returns the outbound queue. It is closed when the hub drops the
// subscriber or stops.
func (s *Subscriber) Lines() <-chan string {
	return s.queue
}

// Leave marks the receiving side as gone so further enqueues fail. It
// reports whether this call was the one that marked it.
func (s *Subscriber) Leave() bool {
	left := false
	s.once.Do(func() {
		close(s.gone)
		left = true
	})
	return left
}

// Gone is closed once Leave has been called
func (s *Subscriber) Gone() <-chan struct{} {
	return s.gone
}

func (s *Subscriber) enqueue(line string) error {
	select {
	case <-s.gone:
		return ErrSubscriberGone
	default:
	}

	select {
	case s.queue <- line:
		return nil
	default:
		return ErrQueueFull
	}
}
