package scenario

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string       // Expectation type
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Steps leading up to the failure
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	var steps []TraceEvent
	for _, ev := range e.Trace {
		if ev.Type == EventStep {
			steps = append(steps, ev)
		}
	}
	if len(steps) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, ev := range steps {
			fmt.Fprintf(&buf, "  [%d] %s %s%s\n", ev.Seq, ev.Op, ev.Instance, stepDetail(ev))
		}
	}
	return buf.String()
}

func stepDetail(ev TraceEvent) string {
	switch {
	case ev.Property != "" && ev.HasValue:
		return fmt.Sprintf(".%s = %v", ev.Property, ev.Value)
	case ev.Behaviour != "":
		return " " + ev.Behaviour
	case ev.Component != "":
		return " " + ev.Component
	}
	return ""
}

// check evaluates one expectation against the live runtime and the trace.
func (h *harness) check(exp Expectation) error {
	switch exp.Type {
	case ExpectProperty:
		return h.checkProperty(exp)
	case ExpectBehaviour:
		return h.checkBehaviour(exp)
	case ExpectObservers:
		return h.checkObservers(exp)
	case ExpectTraceCount:
		return checkTraceCount(h.result.Trace, exp)
	}
	return fmt.Errorf("unknown expectation type %q", exp.Type)
}

// target is the part of a live instance expectations read.
type target interface {
	Get(name string) (any, bool)
	ObserverCount(name string) int
}

func (h *harness) target(exp Expectation) (target, string, bool) {
	if exp.Entity != "" {
		id, ok := h.entities[exp.Entity]
		if !ok {
			return nil, exp.Entity, false
		}
		e, ok := h.rt.Entity(id)
		return e, exp.Entity, ok
	}
	id, ok := h.relations[exp.Relation]
	if !ok {
		return nil, exp.Relation, false
	}
	r, ok := h.rt.Relation(id)
	return r, exp.Relation, ok
}

func (h *harness) checkProperty(exp Expectation) error {
	inst, name, ok := h.target(exp)
	if !ok {
		return h.fail(exp, fmt.Sprintf("%s.%s = %v", name, exp.Property, exp.Value), "instance not registered")
	}
	actual, ok := inst.Get(exp.Property)
	if !ok {
		return h.fail(exp, fmt.Sprintf("%s.%s = %v", name, exp.Property, exp.Value), "property missing")
	}
	if !valuesEqual(exp.Value, actual) {
		return h.fail(exp,
			fmt.Sprintf("%s.%s = %v (type %T)", name, exp.Property, exp.Value, exp.Value),
			fmt.Sprintf("%s.%s = %v (type %T)", name, exp.Property, actual, actual),
		)
	}
	return nil
}

func (h *harness) checkObservers(exp Expectation) error {
	inst, name, ok := h.target(exp)
	if !ok {
		return h.fail(exp, fmt.Sprintf("%d observers on %s.%s", exp.Count, name, exp.Property), "instance not registered")
	}
	n := h.rt.ObserverCount(inst, exp.Property)
	if n != exp.Count {
		return h.fail(exp,
			fmt.Sprintf("%d observers on %s.%s", exp.Count, name, exp.Property),
			fmt.Sprintf("%d observers", n),
		)
	}
	return nil
}

func (h *harness) checkBehaviour(exp Expectation) error {
	want := exp.State
	if want == "" {
		want = behaviour.StateConnected.String()
	}
	ty, err := model.ParseTypeID(model.KindBehaviourType, exp.Behaviour)
	if err != nil {
		return err
	}

	var state string
	var found bool
	if exp.Entity != "" {
		if e, ok := h.rt.Entity(h.entities[exp.Entity]); ok {
			state, found = behaviourState(e, ty, h.rt.EntityBehaviours(), h.rt.EntityComponentBehaviours())
		}
	} else if r, ok := h.rt.Relation(h.relations[exp.Relation]); ok {
		state, found = behaviourState(r, ty, h.rt.RelationBehaviours(), h.rt.RelationComponentBehaviours())
	}

	actual := StateAbsent
	if found {
		actual = state
	}
	if actual != want {
		return h.fail(exp,
			fmt.Sprintf("%s on %s is %s", exp.Behaviour, exp.Entity+exp.Relation, want),
			fmt.Sprintf("%s on %s is %s", exp.Behaviour, exp.Entity+exp.Relation, actual),
		)
	}
	return nil
}

func behaviourState[ID comparable, I reactive.Instance[ID]](inst I, ty model.TypeID, types *behaviour.Manager[ID, I], components *behaviour.ComponentManager[ID, I]) (string, bool) {
	if b, ok := types.Get(inst, ty); ok {
		return b.State().String(), true
	}
	if b, ok := components.Get(inst, ty); ok {
		return b.State().String(), true
	}
	return "", false
}

// checkTraceCount counts behaviour and property events matching every
// field the expectation sets. Step events never match.
func checkTraceCount(trace []TraceEvent, exp Expectation) error {
	instance := exp.Entity + exp.Relation
	count := 0
	for _, ev := range trace {
		if ev.Type == EventStep {
			continue
		}
		if instance != "" && ev.Instance != instance {
			continue
		}
		if exp.Property != "" && ev.Property != exp.Property {
			continue
		}
		if exp.Behaviour != "" && ev.Behaviour != exp.Behaviour {
			continue
		}
		if exp.Event != "" && ev.Event != exp.Event {
			continue
		}
		count++
	}
	if count != exp.Count {
		return &AssertionError{
			Type:     ExpectTraceCount,
			Expected: fmt.Sprintf("%d events matching %s", exp.Count, describeFilter(exp)),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

func describeFilter(exp Expectation) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("instance", exp.Entity+exp.Relation)
	add("property", exp.Property)
	add("behaviour", exp.Behaviour)
	add("event", exp.Event)
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}

func (h *harness) fail(exp Expectation, expected, actual string) error {
	return &AssertionError{Type: exp.Type, Expected: expected, Actual: actual, Trace: h.result.Trace}
}

// valuesEqual compares property values after normalizing numbers, so a
// YAML int matches the stored float64.
func valuesEqual(expected, actual any) bool {
	return reflect.DeepEqual(model.Normalize(expected), model.Normalize(actual))
}
