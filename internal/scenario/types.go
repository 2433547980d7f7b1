package scenario

// Trace event types.
const (
	EventStep      = "step"
	EventBehaviour = "behaviour"
	EventProperty  = "property"
)

// TraceEvent is one entry of a scenario trace. Instances are named by
// their scenario-local names.
type TraceEvent struct {
	Type     string `json:"type"` // "step", "behaviour" or "property"
	Seq      int64  `json:"seq"`
	Instance string `json:"instance"`

	// Op is the step operation (step events).
	Op string `json:"op,omitempty"`

	Property string `json:"property,omitempty"`

	// Value is the written value (set steps and property events).
	Value    any  `json:"value,omitempty"`
	HasValue bool `json:"-"`

	Behaviour string `json:"behaviour,omitempty"`
	Component string `json:"component,omitempty"`

	// Event is the behaviour lifecycle event kind (behaviour events).
	Event string `json:"event,omitempty"`

	// State is the behaviour state after the event (behaviour events).
	State string `json:"state,omitempty"`

	// Error is an error code: the failure of a behaviour event, or the
	// error a step returned.
	Error string `json:"error,omitempty"`
}

// InstanceState is the final state of one entity or relation.
type InstanceState struct {
	Type       string         `json:"type"`
	Behaviours []string       `json:"behaviours"`
	Properties map[string]any `json:"properties"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step behaved as declared and every
	// expectation held.
	Pass bool `json:"pass"`

	// Trace holds step, behaviour and property events in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final maps local names of live instances to their state after the
	// last step.
	Final map[string]InstanceState `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Final:  make(map[string]InstanceState),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
