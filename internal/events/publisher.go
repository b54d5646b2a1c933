// Package events implements the per-job status event publisher.
//
// Publishing is a non-blocking channel send and subscribing is a
// blocking-until-closed receive, following the channel fan-out pattern used
// by the websocket hub this package grew out of. Events are informational;
// the job store record stays authoritative, and a subscriber that connects
// late must read the current snapshot rather than expect replay.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/xccelera/voicegate/internal/jobs"
)

// DefaultIdleTimeout closes subscriptions that receive no events for this
// long, so abandoned jobs do not leak subscribers.
const DefaultIdleTimeout = 5 * time.Minute

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind is dropped rather than block publishers.
const subscriberBuffer = 16

// Event is one status transition for a job.
type Event struct {
	JobID  string      `json:"job_id"`
	Status jobs.Status `json:"status"`
	Detail string      `json:"detail,omitempty"`
	Time   time.Time   `json:"time"`
}

type subscriber struct {
	ch     chan Event
	idle   *time.Timer
	closed bool
}

// Publisher fans out job status events to live subscribers.
type Publisher struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	idle   time.Duration
	logger *slog.Logger
}

// NewPublisher creates a publisher with the given idle timeout.
// A zero timeout selects DefaultIdleTimeout.
func NewPublisher(idle time.Duration, logger *slog.Logger) *Publisher {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		subs:   make(map[string]map[*subscriber]struct{}),
		idle:   idle,
		logger: logger.With("component", "events"),
	}
}

// Subscribe registers for events on one job. The returned channel closes
// when the job reaches a terminal status, the idle timeout fires, or cancel
// is called. Events published before Subscribe are not replayed.
func (p *Publisher) Subscribe(jobID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	p.mu.Lock()
	set, ok := p.subs[jobID]
	if !ok {
		set = make(map[*subscriber]struct{})
		p.subs[jobID] = set
	}
	set[sub] = struct{}{}
	sub.idle = time.AfterFunc(p.idle, func() {
		p.remove(jobID, sub)
	})
	p.mu.Unlock()

	cancel := func() { p.remove(jobID, sub) }
	return sub.ch, cancel
}

// Publish delivers the event to every current subscriber of its job.
// Delivery is best-effort: a subscriber whose buffer is full is dropped.
// A terminal event closes all subscriptions for the job afterwards.
func (p *Publisher) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	p.mu.Lock()
	set := p.subs[ev.JobID]
	var slow []*subscriber
	for sub := range set {
		select {
		case sub.ch <- ev:
			sub.idle.Reset(p.idle)
		default:
			slow = append(slow, sub)
		}
	}
	for _, sub := range slow {
		p.closeLocked(ev.JobID, sub)
		p.logger.Warn("dropped slow subscriber", "job_id", ev.JobID)
	}
	if ev.Status.Terminal() {
		for sub := range p.subs[ev.JobID] {
			p.closeLocked(ev.JobID, sub)
		}
	}
	p.mu.Unlock()
}

// SubscriberCount returns the number of live subscribers for a job.
func (p *Publisher) SubscriberCount(jobID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs[jobID])
}

func (p *Publisher) remove(jobID string, sub *subscriber) {
	p.mu.Lock()
	p.closeLocked(jobID, sub)
	p.mu.Unlock()
}

// closeLocked unregisters and closes a subscriber. Caller holds p.mu.
func (p *Publisher) closeLocked(jobID string, sub *subscriber) {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.idle.Stop()
	close(sub.ch)

	if set, ok := p.subs[jobID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(p.subs, jobID)
		}
	}
}
