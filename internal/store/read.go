package store

import (
	"context"
	"database/sql"
	"fmt"
)

// TraceEntry is one row of the merged log. Exactly one of Behaviour and
// Property is set.
type TraceEntry struct {
	Seq       int64
	Behaviour *BehaviourEvent
	Property  *PropertyEvent
}

// ReadBehaviourEvents returns behaviour events ordered by seq. An empty
// instanceID returns the events of every instance.
//
// Returns an empty slice (not nil) if no records exist.
func (s *Store) ReadBehaviourEvents(ctx context.Context, instanceID string) ([]BehaviourEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, instance_id, behaviour_type, event, state, error
		FROM behaviour_events
		WHERE ? = '' OR instance_id = ?
		ORDER BY seq ASC
	`, instanceID, instanceID)
	if err != nil {
		return nil, fmt.Errorf("query behaviour events: %w", err)
	}
	defer rows.Close()

	events := []BehaviourEvent{}
	for rows.Next() {
		ev, err := scanBehaviourEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate behaviour events: %w", err)
	}
	return events, nil
}

// ReadPropertyEvents returns property events ordered by seq. An empty
// instanceID returns the events of every instance.
//
// Returns an empty slice (not nil) if no records exist.
func (s *Store) ReadPropertyEvents(ctx context.Context, instanceID string) ([]PropertyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, instance_id, property, value
		FROM property_events
		WHERE ? = '' OR instance_id = ?
		ORDER BY seq ASC
	`, instanceID, instanceID)
	if err != nil {
		return nil, fmt.Errorf("query property events: %w", err)
	}
	defer rows.Close()

	events := []PropertyEvent{}
	for rows.Next() {
		ev, err := scanPropertyEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate property events: %w", err)
	}
	return events, nil
}

// ReadTrace returns both logs merged by seq.
func (s *Store) ReadTrace(ctx context.Context) ([]TraceEntry, error) {
	behaviours, err := s.ReadBehaviourEvents(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	properties, err := s.ReadPropertyEvents(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	trace := make([]TraceEntry, 0, len(behaviours)+len(properties))
	i, j := 0, 0
	for i < len(behaviours) || j < len(properties) {
		if j == len(properties) || (i < len(behaviours) && behaviours[i].Seq < properties[j].Seq) {
			trace = append(trace, TraceEntry{Seq: behaviours[i].Seq, Behaviour: &behaviours[i]})
			i++
			continue
		}
		trace = append(trace, TraceEntry{Seq: properties[j].Seq, Property: &properties[j]})
		j++
	}
	return trace, nil
}

func scanBehaviourEvent(rows *sql.Rows) (BehaviourEvent, error) {
	var ev BehaviourEvent
	if err := rows.Scan(&ev.Seq, &ev.InstanceID, &ev.BehaviourType, &ev.Event, &ev.State, &ev.Error); err != nil {
		return BehaviourEvent{}, fmt.Errorf("scan behaviour event: %w", err)
	}
	return ev, nil
}

func scanPropertyEvent(rows *sql.Rows) (PropertyEvent, error) {
	var ev PropertyEvent
	var valueJSON string
	if err := rows.Scan(&ev.Seq, &ev.InstanceID, &ev.Property, &valueJSON); err != nil {
		return PropertyEvent{}, fmt.Errorf("scan property event: %w", err)
	}
	v, err := unmarshalValue(valueJSON)
	if err != nil {
		return PropertyEvent{}, fmt.Errorf("scan property event %d: %w", ev.Seq, err)
	}
	ev.Value = v
	return ev, nil
}
