package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/model"
)

// Scenario is a reactive graph test case.
type Scenario struct {
	// Name uniquely identifies this scenario. It also seeds entity ids
	// and names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Types declares components, entity types and relation types on top
	// of the built-in catalog.
	Types Types `yaml:"types,omitempty"`

	// Entities are created in order before the first step.
	Entities []EntityDecl `yaml:"entities"`

	// Relations are created in order after the entities.
	Relations []RelationDecl `yaml:"relations,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Expect is checked after the last step.
	Expect []Expectation `yaml:"expect"`

	// MaxDepth enables the propagation depth guard. Zero disables it.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// Types holds scenario-local type declarations.
type Types struct {
	Components []ComponentTypeDecl `yaml:"components,omitempty"`
	Entities   []EntityTypeDecl    `yaml:"entities,omitempty"`
	Relations  []RelationTypeDecl  `yaml:"relations,omitempty"`
}

// PropertyDecl declares one property of a type.
type PropertyDecl struct {
	Name       string `yaml:"name"`
	DataType   string `yaml:"data_type,omitempty"`
	Socket     string `yaml:"socket,omitempty"`
	Mutability string `yaml:"mutability,omitempty"`
}

// ComponentTypeDecl declares a component.
type ComponentTypeDecl struct {
	Type       string         `yaml:"type"`
	Properties []PropertyDecl `yaml:"properties,omitempty"`
}

// EntityTypeDecl declares an entity type.
type EntityTypeDecl struct {
	Type       string         `yaml:"type"`
	Components []string       `yaml:"components,omitempty"`
	Properties []PropertyDecl `yaml:"properties,omitempty"`
}

// RelationTypeDecl declares a relation type. Empty endpoint types accept
// any entity type.
type RelationTypeDecl struct {
	Type       string         `yaml:"type"`
	Outbound   string         `yaml:"outbound,omitempty"`
	Inbound    string         `yaml:"inbound,omitempty"`
	Components []string       `yaml:"components,omitempty"`
	Properties []PropertyDecl `yaml:"properties,omitempty"`
}

// EntityDecl creates one entity.
type EntityDecl struct {
	// Name is the local name used by steps, expectations and traces.
	Name string `yaml:"name"`

	// Type is an entity type from the catalog.
	Type string `yaml:"type"`

	Properties map[string]any `yaml:"properties,omitempty"`

	// Components are added after creation, in order.
	Components []string `yaml:"components,omitempty"`
}

// RelationDecl creates one relation between two declared entities.
type RelationDecl struct {
	// Name defaults to "outbound->inbound".
	Name string `yaml:"name,omitempty"`

	Outbound string `yaml:"outbound"`
	Type     string `yaml:"type"`
	Inbound  string `yaml:"inbound"`

	// Instance discriminates several relations of one type between the
	// same entities.
	Instance string `yaml:"instance,omitempty"`

	Properties map[string]any `yaml:"properties,omitempty"`
}

// Step is one operation against the graph. Exactly one of Entity and
// Relation names the target.
type Step struct {
	Op        string `yaml:"op"`
	Entity    string `yaml:"entity,omitempty"`
	Relation  string `yaml:"relation,omitempty"`
	Property  string `yaml:"property,omitempty"`
	Value     any    `yaml:"value,omitempty"`
	Behaviour string `yaml:"behaviour,omitempty"`
	Component string `yaml:"component,omitempty"`

	// Error is the expected error code. A step without Error must succeed.
	Error string `yaml:"error,omitempty"`
}

// Step operations.
const (
	OpSet             = "set"
	OpSetChecked      = "set_checked"
	OpSetNoPropagate  = "set_no_propagate"
	OpTick            = "tick"
	OpTickChecked     = "tick_checked"
	OpAddBehaviour    = "add_behaviour"
	OpRemoveBehaviour = "remove_behaviour"
	OpConnect         = "connect"
	OpDisconnect      = "disconnect"
	OpReconnect       = "reconnect"
	OpAddComponent    = "add_component"
	OpRemoveComponent = "remove_component"
	OpDeleteEntity    = "delete_entity"
	OpDeleteRelation  = "delete_relation"
)

// Expectation checks the graph or the trace after the last step.
type Expectation struct {
	// Type is one of property, behaviour, observers, trace_count.
	Type string `yaml:"type"`

	Entity   string `yaml:"entity,omitempty"`
	Relation string `yaml:"relation,omitempty"`
	Property string `yaml:"property,omitempty"`

	// Value is the expected property value (property).
	Value any `yaml:"value,omitempty"`

	Behaviour string `yaml:"behaviour,omitempty"`

	// State is a behaviour state name or "absent" (behaviour). Empty
	// means Connected.
	State string `yaml:"state,omitempty"`

	// Event filters behaviour events (trace_count).
	Event string `yaml:"event,omitempty"`

	// Count is the expected observer or event count.
	Count int `yaml:"count,omitempty"`
}

// Expectation types.
const (
	ExpectProperty   = "property"
	ExpectBehaviour  = "behaviour"
	ExpectObservers  = "observers"
	ExpectTraceCount = "trace_count"
)

// StateAbsent marks a behaviour expectation that the behaviour is not
// attached at all.
const StateAbsent = "absent"

// Load reads and parses a scenario YAML file. Unknown fields are
// rejected so that typos fail loudly.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks required fields and cross references.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Steps) == 0 && len(s.Expect) == 0 {
		return errors.New("steps or expect must be non-empty")
	}
	if s.MaxDepth < 0 {
		return errors.New("max_depth must be non-negative")
	}
	if err := validateTypes(&s.Types); err != nil {
		return err
	}

	entities := make(map[string]bool)
	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entities[%d]: name is required", i)
		}
		if entities[e.Name] {
			return fmt.Errorf("entities[%d]: duplicate name %q", i, e.Name)
		}
		entities[e.Name] = true
		if _, err := model.ParseTypeID(model.KindEntityType, e.Type); err != nil {
			return fmt.Errorf("entities[%d]: %w", i, err)
		}
		for j, c := range e.Components {
			if _, err := model.ParseTypeID(model.KindComponent, c); err != nil {
				return fmt.Errorf("entities[%d].components[%d]: %w", i, j, err)
			}
		}
	}

	relations := make(map[string]bool)
	for i, r := range s.Relations {
		if !entities[r.Outbound] {
			return fmt.Errorf("relations[%d]: unknown outbound entity %q", i, r.Outbound)
		}
		if !entities[r.Inbound] {
			return fmt.Errorf("relations[%d]: unknown inbound entity %q", i, r.Inbound)
		}
		if _, err := model.ParseTypeID(model.KindRelationType, r.Type); err != nil {
			return fmt.Errorf("relations[%d]: %w", i, err)
		}
		name := r.localName()
		if entities[name] || relations[name] {
			return fmt.Errorf("relations[%d]: duplicate name %q", i, name)
		}
		relations[name] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(step, entities, relations); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, exp := range s.Expect {
		if err := validateExpectation(exp, entities, relations); err != nil {
			return fmt.Errorf("expect[%d]: %w", i, err)
		}
	}
	return nil
}

func validateTypes(t *Types) error {
	for i, c := range t.Components {
		if _, err := model.ParseTypeID(model.KindComponent, c.Type); err != nil {
			return fmt.Errorf("types.components[%d]: %w", i, err)
		}
		if err := validateProperties(c.Properties); err != nil {
			return fmt.Errorf("types.components[%d]: %w", i, err)
		}
	}
	for i, e := range t.Entities {
		if _, err := model.ParseTypeID(model.KindEntityType, e.Type); err != nil {
			return fmt.Errorf("types.entities[%d]: %w", i, err)
		}
		if err := validateProperties(e.Properties); err != nil {
			return fmt.Errorf("types.entities[%d]: %w", i, err)
		}
	}
	for i, r := range t.Relations {
		if _, err := model.ParseTypeID(model.KindRelationType, r.Type); err != nil {
			return fmt.Errorf("types.relations[%d]: %w", i, err)
		}
		if err := validateProperties(r.Properties); err != nil {
			return fmt.Errorf("types.relations[%d]: %w", i, err)
		}
	}
	return nil
}

func validateProperties(props []PropertyDecl) error {
	for i, p := range props {
		if p.Name == "" {
			return fmt.Errorf("properties[%d]: name is required", i)
		}
		if _, err := model.ParseMutability(p.Mutability); err != nil {
			return fmt.Errorf("properties[%d]: %w", i, err)
		}
		if _, err := parseDataType(p.DataType); err != nil {
			return fmt.Errorf("properties[%d]: %w", i, err)
		}
		if _, err := parseSocket(p.Socket); err != nil {
			return fmt.Errorf("properties[%d]: %w", i, err)
		}
	}
	return nil
}

func validateTarget(entity, relation string, entities, relations map[string]bool) error {
	switch {
	case entity != "" && relation != "":
		return errors.New("entity and relation are mutually exclusive")
	case entity != "":
		if !entities[entity] {
			return fmt.Errorf("unknown entity %q", entity)
		}
	case relation != "":
		if !relations[relation] {
			return fmt.Errorf("unknown relation %q", relation)
		}
	default:
		return errors.New("entity or relation is required")
	}
	return nil
}

func validateStep(step Step, entities, relations map[string]bool) error {
	if err := validateTarget(step.Entity, step.Relation, entities, relations); err != nil {
		return fmt.Errorf("%s: %w", step.Op, err)
	}
	switch step.Op {
	case OpSet, OpSetChecked, OpSetNoPropagate:
		if step.Property == "" {
			return fmt.Errorf("property is required for %s", step.Op)
		}
	case OpTick, OpTickChecked:
	case OpAddBehaviour, OpRemoveBehaviour, OpConnect, OpDisconnect, OpReconnect:
		if _, err := model.ParseTypeID(model.KindBehaviourType, step.Behaviour); err != nil {
			return fmt.Errorf("behaviour is required for %s: %w", step.Op, err)
		}
	case OpAddComponent, OpRemoveComponent:
		if step.Entity == "" {
			return fmt.Errorf("%s only applies to entities", step.Op)
		}
		if _, err := model.ParseTypeID(model.KindComponent, step.Component); err != nil {
			return fmt.Errorf("component is required for %s: %w", step.Op, err)
		}
	case OpDeleteEntity:
		if step.Entity == "" {
			return errors.New("delete_entity requires an entity")
		}
	case OpDeleteRelation:
		if step.Relation == "" {
			return errors.New("delete_relation requires a relation")
		}
	case "":
		return errors.New("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateExpectation(exp Expectation, entities, relations map[string]bool) error {
	switch exp.Type {
	case ExpectProperty, ExpectObservers:
		if err := validateTarget(exp.Entity, exp.Relation, entities, relations); err != nil {
			return err
		}
		if exp.Property == "" {
			return fmt.Errorf("property is required for %s", exp.Type)
		}
		if exp.Count < 0 {
			return errors.New("count must be non-negative")
		}
	case ExpectBehaviour:
		if err := validateTarget(exp.Entity, exp.Relation, entities, relations); err != nil {
			return err
		}
		if _, err := model.ParseTypeID(model.KindBehaviourType, exp.Behaviour); err != nil {
			return fmt.Errorf("behaviour is required: %w", err)
		}
		if exp.State != "" && exp.State != StateAbsent {
			if _, err := behaviour.ParseState(exp.State); err != nil {
				return err
			}
		}
	case ExpectTraceCount:
		if exp.Entity != "" || exp.Relation != "" {
			if err := validateTarget(exp.Entity, exp.Relation, entities, relations); err != nil {
				return err
			}
		}
		if exp.Count < 0 {
			return errors.New("count must be non-negative")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown expectation type %q", exp.Type)
	}
	return nil
}

func (r RelationDecl) localName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Outbound + "->" + r.Inbound
}

func parseDataType(s string) (model.DataType, error) {
	switch dt := model.DataType(s); dt {
	case "":
		return model.DataTypeAny, nil
	case model.DataTypeNull, model.DataTypeBool, model.DataTypeNumber, model.DataTypeString,
		model.DataTypeArray, model.DataTypeObject, model.DataTypeAny:
		return dt, nil
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

func parseSocket(s string) (model.SocketType, error) {
	switch st := model.SocketType(s); st {
	case "":
		return model.SocketNone, nil
	case model.SocketNone, model.SocketInput, model.SocketOutput:
		return st, nil
	}
	return "", fmt.Errorf("unknown socket type %q", s)
}
