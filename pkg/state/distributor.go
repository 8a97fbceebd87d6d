package state

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/posture"
)

// DefaultBuffer is the per-subscriber queue size.
const DefaultBuffer = 16

// Stats counts deliveries for one subscriber.
type Stats struct {
	Sent    uint64
	Dropped uint64
}

type subscriber struct {
	ch    chan Update
	stats Stats
}

// Distributor fans state updates out to subscribers. Publishing never blocks:
// when a subscriber's queue is full its oldest queued update is dropped.
type Distributor struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	snap   Snapshot
	closed bool
	now    func() time.Time
	logger *slog.Logger
}

// NewDistributor creates an empty distributor.
func NewDistributor() *Distributor {
	return &Distributor{
		subs:   make(map[string]*subscriber),
		now:    time.Now,
		logger: log.With("component", "state"),
	}
}

// Subscribe registers a consumer. The returned cancel func unsubscribes and
// closes the channel; it is safe to call more than once.
func (d *Distributor) Subscribe(buffer int) (string, <-chan Update, func()) {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	id := uuid.NewString()
	sub := &subscriber{ch: make(chan Update, buffer)}

	d.mu.Lock()
	if d.closed {
		close(sub.ch)
	} else {
		d.subs[id] = sub
	}
	count := len(d.subs)
	d.mu.Unlock()

	d.logger.Debug("subscriber added", "id", id, "subscribers", count)
	return id, sub.ch, func() { d.unsubscribe(id) }
}

func (d *Distributor) unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sub, ok := d.subs[id]
	if !ok {
		return
	}
	delete(d.subs, id)
	close(sub.ch)
}

// Publish records u in the snapshot and delivers it to every subscriber.
func (d *Distributor) Publish(u Update) {
	if u.At.IsZero() {
		u.At = d.now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	switch u.Kind {
	case KindRecognition:
		if u.Recognition != nil {
			d.snap.Recognized = u.Recognition.Recognized
			d.snap.Keypoints = u.Recognition.Keypoints
		}
	case KindAnalysis:
		d.snap.Analysis = u.Analysis
	case KindError:
		d.snap.Error = u.Error
	}
	d.snap.UpdatedAt = u.At

	for _, sub := range d.subs {
		deliver(sub, u)
	}
}

// deliver enqueues u, evicting the oldest queued update when full.
func deliver(sub *subscriber, u Update) {
	for {
		select {
		case sub.ch <- u:
			atomic.AddUint64(&sub.stats.Sent, 1)
			return
		default:
		}
		select {
		case <-sub.ch:
			atomic.AddUint64(&sub.stats.Dropped, 1)
		default:
		}
	}
}

// PublishRecognition emits the per-cycle recognition state.
func (d *Distributor) PublishRecognition(recognized bool, kp *pose.Keypoints) {
	d.Publish(Update{
		Kind:        KindRecognition,
		Recognition: &Recognition{Recognized: recognized, Keypoints: kp},
	})
}

// PublishAnalysis emits a posture analysis.
func (d *Distributor) PublishAnalysis(a posture.Analysis) {
	d.Publish(Update{Kind: KindAnalysis, Analysis: &a})
}

// PublishError sets the persistent error state. A nil err clears it.
func (d *Distributor) PublishError(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	d.Publish(Update{Kind: KindError, Error: msg})
}

// Snapshot returns the latest state.
func (d *Distributor) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// Stats returns delivery counters for a subscriber.
func (d *Distributor) Stats(id string) (Stats, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sub, ok := d.subs[id]
	if !ok {
		return Stats{}, false
	}
	return Stats{
		Sent:    atomic.LoadUint64(&sub.stats.Sent),
		Dropped: atomic.LoadUint64(&sub.stats.Dropped),
	}, true
}

// Subscribers returns the number of active subscribers.
func (d *Distributor) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (d *Distributor) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for id, sub := range d.subs {
		close(sub.ch)
		delete(d.subs, id)
	}
}
