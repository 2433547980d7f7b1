package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrReadOnly is returned by writes to a log opened with ReadOnly.
var ErrReadOnly = errors.New("event log is read-only")

// BehaviourEvent is one behaviour lifecycle change.
type BehaviourEvent struct {
	Seq           int64
	InstanceID    string
	BehaviourType string
	Event         string
	State         string
	Error         string
}

// PropertyEvent is one value written to a property.
type PropertyEvent struct {
	Seq        int64
	InstanceID string
	Property   string
	Value      any
}

// WriteBehaviourEvent appends a behaviour event.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency - rewriting a seq is
// silently ignored.
func (s *Store) WriteBehaviourEvent(ctx context.Context, ev BehaviourEvent) error {
	if s.readOnly {
		return ErrReadOnly
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO behaviour_events
		(seq, instance_id, behaviour_type, event, state, error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		ev.Seq,
		ev.InstanceID,
		ev.BehaviourType,
		ev.Event,
		ev.State,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("write behaviour event: %w", err)
	}
	return nil
}

// WritePropertyEvent appends a property event. The value is serialized to
// canonical JSON, so values that cannot be represented (NaN, channels, ...)
// are rejected.
func (s *Store) WritePropertyEvent(ctx context.Context, ev PropertyEvent) error {
	if s.readOnly {
		return ErrReadOnly
	}
	valueJSON, err := marshalValue(ev.Value)
	if err != nil {
		return fmt.Errorf("write property event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO property_events
		(seq, instance_id, property, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		ev.Seq,
		ev.InstanceID,
		ev.Property,
		valueJSON,
	)
	if err != nil {
		return fmt.Errorf("write property event: %w", err)
	}
	return nil
}
