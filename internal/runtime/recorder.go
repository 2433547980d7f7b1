package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/store"
)

// Sequencer stamps recorded events. Seqs are shared by behaviour and
// property events, so one sequencer orders the whole log.
type Sequencer interface {
	Next() int64
}

// Clock is the logical Sequencer: seq 1, 2, 3 and so on, never wall time.
// A scenario harness and its Recorder share one Clock so trace events and
// stored rows carry the same seqs.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// ResumeClock returns a clock that continues after the last seq stored in s.
func ResumeClock(ctx context.Context, s *store.Store) (*Clock, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	c := &Clock{}
	c.seq.Store(last)
	return c, nil
}

func (c *Clock) Next() int64 { return c.seq.Add(1) }

// Current is the last seq handed out, 0 before the first.
func (c *Clock) Current() int64 { return c.seq.Load() }

// Recorder writes behaviour lifecycle events and property values into a
// store, stamped by a logical clock. Write failures are logged at Warn and
// do not interrupt propagation.
type Recorder struct {
	store  *store.Store
	clock  Sequencer
	logger *slog.Logger

	// mu keeps seq order equal to write order.
	mu sync.Mutex
}

// NewRecorder creates a recorder. A nil clock starts a fresh Clock; a nil
// logger uses slog.Default().
func NewRecorder(s *store.Store, clock Sequencer, logger *slog.Logger) *Recorder {
	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, clock: clock, logger: logger}
}

// ResumeRecorder creates a recorder that appends to the events already in s.
func ResumeRecorder(ctx context.Context, s *store.Store, logger *slog.Logger) (*Recorder, error) {
	clock, err := ResumeClock(ctx, s)
	if err != nil {
		return nil, err
	}
	return NewRecorder(s, clock, logger), nil
}

// OnBehaviourEvent implements behaviour.Listener.
func (r *Recorder) OnBehaviourEvent(ev behaviour.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := store.BehaviourEvent{
		Seq:           r.clock.Next(),
		InstanceID:    ev.InstanceID,
		BehaviourType: ev.BehaviourType.String(),
		Event:         string(ev.Kind),
		State:         ev.State.String(),
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	if err := r.store.WriteBehaviourEvent(context.Background(), rec); err != nil {
		r.logger.Warn("failed to record behaviour event",
			"seq", rec.Seq,
			"instance", ev.InstanceID,
			"error", err,
		)
	}
}

// OnPropertyChange implements PropertyListener.
func (r *Recorder) OnPropertyChange(instanceID, property string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := store.PropertyEvent{
		Seq:        r.clock.Next(),
		InstanceID: instanceID,
		Property:   property,
		Value:      value,
	}
	if err := r.store.WritePropertyEvent(context.Background(), rec); err != nil {
		r.logger.Warn("failed to record property event",
			"seq", rec.Seq,
			"instance", instanceID,
			"property", property,
			"error", err,
		)
	}
}
