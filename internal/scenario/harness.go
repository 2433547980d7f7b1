package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/behaviours"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
	"github.com/roach88/rgraph/internal/runtime"
	"github.com/roach88/rgraph/internal/store"
)

// namespace seeds the entity ids of every scenario.
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("rgraph.scenario"))

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	logger    *slog.Logger
	store     *store.Store
	maxDepth  int
	listeners []behaviour.Listener
}

// WithLogger sets the logger handed to the runtime. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// WithStore also records behaviour and property events into st with the
// same seqs as the trace. Step events are not written. The store must be
// empty.
func WithStore(st *store.Store) Option {
	return func(o *runOptions) {
		o.store = st
	}
}

// WithDefaultMaxDepth sets the depth guard for scenarios that do not
// declare max_depth.
func WithDefaultMaxDepth(n int) Option {
	return func(o *runOptions) {
		o.maxDepth = n
	}
}

// WithBehaviourListener adds a behaviour listener notified after the
// trace has recorded each event.
func WithBehaviourListener(l behaviour.Listener) Option {
	return func(o *runOptions) {
		o.listeners = append(o.listeners, l)
	}
}

// harness executes one scenario. It is the runtime's behaviour and
// property listener and turns both event streams into the trace.
type harness struct {
	scenario *Scenario
	rt       *runtime.Runtime
	clock    *runtime.Clock
	ids      reactive.NameGenerator

	// recording is set when a Recorder shares the clock. The Recorder is
	// notified first and has already advanced it.
	recording bool

	mu     sync.Mutex
	result *Result

	names     map[string]string
	entities  map[string]uuid.UUID
	relations map[string]model.RelationInstanceID
}

// Run executes a scenario against a fresh runtime and returns the result.
//
// Execution flow:
//  1. Build the catalog from the built-in types plus the scenario's types
//  2. Create the entities, then the relations
//  3. Apply the steps in order, recording every event they cause
//  4. Snapshot the live instances and check the expectations
//
// Failures to build the graph in steps 1 and 2 are returned as errors.
// Step and expectation failures are reported in the Result.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	catalog, err := buildCatalog(&s.Types)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	h := &harness{
		scenario:  s,
		clock:     runtime.NewClock(),
		ids:       reactive.NameGenerator{Namespace: uuid.NewSHA1(namespace, []byte(s.Name))},
		result:    NewResult(),
		names:     make(map[string]string),
		entities:  make(map[string]uuid.UUID),
		relations: make(map[string]model.RelationInstanceID),
	}

	maxDepth := s.MaxDepth
	if maxDepth == 0 {
		maxDepth = o.maxDepth
	}
	rtOpts := []runtime.Option{
		runtime.WithLogger(o.logger),
		runtime.WithCatalog(catalog),
		runtime.WithMaxDepth(maxDepth),
	}
	if o.store != nil {
		last, err := o.store.LastSeq(context.Background())
		if err != nil {
			return nil, err
		}
		if last > 0 {
			return nil, fmt.Errorf("store already holds events up to seq %d", last)
		}
		h.recording = true
		rtOpts = append(rtOpts, runtime.WithRecorder(runtime.NewRecorder(o.store, h.clock, o.logger)))
	}
	rtOpts = append(rtOpts, runtime.WithBehaviourListener(h), runtime.WithPropertyListener(h))
	for _, l := range o.listeners {
		rtOpts = append(rtOpts, runtime.WithBehaviourListener(l))
	}

	h.rt, err = runtime.New(rtOpts...)
	if err != nil {
		return nil, err
	}

	for _, decl := range s.Entities {
		if err := h.createEntity(decl); err != nil {
			return nil, fmt.Errorf("create entity %q: %w", decl.Name, err)
		}
	}
	for _, decl := range s.Relations {
		if err := h.createRelation(decl); err != nil {
			return nil, fmt.Errorf("create relation %q: %w", decl.localName(), err)
		}
	}

	for i, step := range s.Steps {
		h.runStep(i, step)
	}

	h.snapshot()
	for i, exp := range s.Expect {
		if err := h.check(exp); err != nil {
			h.result.AddError(fmt.Sprintf("expect[%d]: %v", i, err))
		}
	}

	o.logger.Debug("scenario finished",
		"scenario", s.Name,
		"pass", h.result.Pass,
		"events", len(h.result.Trace),
	)
	return h.result, nil
}

// buildCatalog layers scenario type declarations over the built-in catalog.
func buildCatalog(t *Types) (*model.Catalog, error) {
	c, err := behaviours.Catalog()
	if err != nil {
		return nil, err
	}
	for _, decl := range t.Components {
		ty, err := model.ParseTypeID(model.KindComponent, decl.Type)
		if err != nil {
			return nil, err
		}
		props, err := propertyTypes(decl.Properties)
		if err != nil {
			return nil, err
		}
		if err := c.AddComponent(model.Component{Type: ty, Properties: props}); err != nil {
			return nil, err
		}
	}
	for _, decl := range t.Entities {
		ty, err := model.ParseTypeID(model.KindEntityType, decl.Type)
		if err != nil {
			return nil, err
		}
		components, err := componentTypes(decl.Components)
		if err != nil {
			return nil, err
		}
		props, err := propertyTypes(decl.Properties)
		if err != nil {
			return nil, err
		}
		if err := c.AddEntityType(model.EntityType{Type: ty, Components: components, Properties: props}); err != nil {
			return nil, err
		}
	}
	for _, decl := range t.Relations {
		rt := model.RelationType{}
		var err error
		if rt.Type, err = model.ParseTypeID(model.KindRelationType, decl.Type); err != nil {
			return nil, err
		}
		if decl.Outbound != "" {
			if rt.OutboundType, err = model.ParseTypeID(model.KindEntityType, decl.Outbound); err != nil {
				return nil, err
			}
		}
		if decl.Inbound != "" {
			if rt.InboundType, err = model.ParseTypeID(model.KindEntityType, decl.Inbound); err != nil {
				return nil, err
			}
		}
		if rt.Components, err = componentTypes(decl.Components); err != nil {
			return nil, err
		}
		if rt.Properties, err = propertyTypes(decl.Properties); err != nil {
			return nil, err
		}
		if err := c.AddRelationType(rt); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func componentTypes(names []string) ([]model.TypeID, error) {
	var out []model.TypeID
	for _, name := range names {
		ty, err := model.ParseTypeID(model.KindComponent, name)
		if err != nil {
			return nil, err
		}
		out = append(out, ty)
	}
	return out, nil
}

func propertyTypes(decls []PropertyDecl) ([]model.PropertyType, error) {
	var out []model.PropertyType
	for _, d := range decls {
		dt, err := parseDataType(d.DataType)
		if err != nil {
			return nil, err
		}
		socket, err := parseSocket(d.Socket)
		if err != nil {
			return nil, err
		}
		m, err := model.ParseMutability(d.Mutability)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PropertyType{Name: d.Name, DataType: dt, SocketType: socket, Mutability: m})
	}
	return out, nil
}

func (h *harness) createEntity(decl EntityDecl) error {
	ty, err := model.ParseTypeID(model.KindEntityType, decl.Type)
	if err != nil {
		return err
	}
	id := h.ids.For(decl.Name)
	h.names[id.String()] = decl.Name
	h.entities[decl.Name] = id
	if _, err := h.rt.CreateEntityWithID(id, ty, decl.Properties); err != nil {
		return err
	}
	for _, c := range decl.Components {
		cty, err := model.ParseTypeID(model.KindComponent, c)
		if err != nil {
			return err
		}
		if err := h.rt.AddComponent(id, cty); err != nil {
			return err
		}
	}
	return nil
}

func (h *harness) createRelation(decl RelationDecl) error {
	ty, err := model.ParseTypeID(model.KindRelationType, decl.Type)
	if err != nil {
		return err
	}
	instTy := model.NewRelationInstanceType(ty, decl.Instance)
	out, in := h.entities[decl.Outbound], h.entities[decl.Inbound]
	id := model.NewRelationInstanceID(out, instTy, in)
	name := decl.localName()
	h.names[id.String()] = name
	h.relations[name] = id
	_, err = h.rt.CreateRelation(out, instTy, in, decl.Properties)
	return err
}

// OnBehaviourEvent implements behaviour.Listener.
func (h *harness) OnBehaviourEvent(ev behaviour.Event) {
	te := TraceEvent{
		Type:      EventBehaviour,
		Instance:  h.name(ev.InstanceID),
		Behaviour: ev.BehaviourType.String(),
		Event:     string(ev.Kind),
		State:     ev.State.String(),
	}
	if ev.Err != nil {
		te.Error = errorCode(ev.Err)
	}
	h.record(te, h.recording)
}

// OnPropertyChange implements runtime.PropertyListener.
func (h *harness) OnPropertyChange(instanceID, property string, value any) {
	h.record(TraceEvent{
		Type:     EventProperty,
		Instance: h.name(instanceID),
		Property: property,
		Value:    value,
		HasValue: true,
	}, h.recording)
}

// record stamps and appends an event and returns its index. shared means
// the Recorder has already taken the seq for this event.
func (h *harness) record(te TraceEvent, shared bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if shared {
		te.Seq = h.clock.Current()
	} else {
		te.Seq = h.clock.Next()
	}
	h.result.Trace = append(h.result.Trace, te)
	return len(h.result.Trace) - 1
}

func (h *harness) name(instanceID string) string {
	if name, ok := h.names[instanceID]; ok {
		return name
	}
	return instanceID
}

// runStep records the step before applying it, so the events it causes
// follow it in the trace.
func (h *harness) runStep(i int, step Step) {
	te := TraceEvent{
		Type:      EventStep,
		Instance:  step.Entity + step.Relation,
		Op:        step.Op,
		Property:  step.Property,
		Behaviour: step.Behaviour,
		Component: step.Component,
	}
	switch step.Op {
	case OpSet, OpSetChecked, OpSetNoPropagate:
		te.Value = model.Normalize(step.Value)
		te.HasValue = true
	}
	idx := h.record(te, false)

	err := h.apply(step, te.Value)
	var code string
	if err != nil {
		code = errorCode(err)
		h.mu.Lock()
		h.result.Trace[idx].Error = code
		h.mu.Unlock()
	}

	switch {
	case step.Error == "" && err != nil:
		h.result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Op, err))
	case step.Error != "" && err == nil:
		h.result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got none", i, step.Op, step.Error))
	case step.Error != "" && code != step.Error:
		h.result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s", i, step.Op, step.Error, code))
	}
}

func (h *harness) apply(step Step, value any) error {
	switch step.Op {
	case OpAddComponent, OpRemoveComponent:
		id, err := h.entityID(step.Entity)
		if err != nil {
			return err
		}
		cty, err := model.ParseTypeID(model.KindComponent, step.Component)
		if err != nil {
			return err
		}
		if step.Op == OpAddComponent {
			return h.rt.AddComponent(id, cty)
		}
		return h.rt.RemoveComponent(id, cty)
	case OpDeleteEntity:
		id, err := h.entityID(step.Entity)
		if err != nil {
			return err
		}
		return h.rt.DeleteEntity(id)
	case OpDeleteRelation:
		id, err := h.relationID(step.Relation)
		if err != nil {
			return err
		}
		return h.rt.DeleteRelation(id)
	}

	if step.Entity != "" {
		id, err := h.entityID(step.Entity)
		if err != nil {
			return err
		}
		e, ok := h.rt.Entity(id)
		if !ok {
			return notFound(runtime.ErrCodeEntityNotFound, step.Entity)
		}
		return applyTo(step, value, e, h.rt.EntityBehaviours(), h.rt.EntityComponentBehaviours())
	}
	id, err := h.relationID(step.Relation)
	if err != nil {
		return err
	}
	r, ok := h.rt.Relation(id)
	if !ok {
		return notFound(runtime.ErrCodeRelationNotFound, step.Relation)
	}
	return applyTo(step, value, r, h.rt.RelationBehaviours(), h.rt.RelationComponentBehaviours())
}

// applyTo runs a property or behaviour step against one instance.
func applyTo[ID comparable, I reactive.Instance[ID]](step Step, value any, inst I, types *behaviour.Manager[ID, I], components *behaviour.ComponentManager[ID, I]) error {
	switch step.Op {
	case OpSet:
		inst.Set(step.Property, value)
		return nil
	case OpSetChecked:
		inst.SetChecked(step.Property, value)
		return nil
	case OpSetNoPropagate:
		inst.SetNoPropagate(step.Property, value)
		return nil
	case OpTick:
		inst.Tick()
		return nil
	case OpTickChecked:
		inst.TickChecked()
		return nil
	}

	ty, err := model.ParseTypeID(model.KindBehaviourType, step.Behaviour)
	if err != nil {
		return err
	}
	mgr := managerFor(inst, ty, types, components)
	switch step.Op {
	case OpAddBehaviour:
		_, err := mgr.Create(inst, ty)
		return err
	case OpRemoveBehaviour:
		mgr.RemoveBehaviour(inst, ty)
		return nil
	case OpConnect:
		return mgr.Connect(inst, ty)
	case OpDisconnect:
		return mgr.Disconnect(inst, ty)
	case OpReconnect:
		return mgr.Reconnect(inst, ty)
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

// managerFor picks the manager that owns a behaviour type: the one that
// already holds it, else the one with a factory for it.
func managerFor[ID comparable, I reactive.Instance[ID]](inst I, ty model.TypeID, types *behaviour.Manager[ID, I], components *behaviour.ComponentManager[ID, I]) *behaviour.Manager[ID, I] {
	switch {
	case components.Has(inst, ty):
		return components.Manager
	case types.Has(inst, ty):
		return types
	}
	if _, ok := types.Registry().FactoryByBehaviourType(ty); ok {
		return types
	}
	if _, ok := components.Registry().FactoryByBehaviourType(ty); ok {
		return components.Manager
	}
	return types
}

func (h *harness) entityID(name string) (uuid.UUID, error) {
	id, ok := h.entities[name]
	if !ok {
		return uuid.Nil, notFound(runtime.ErrCodeEntityNotFound, name)
	}
	return id, nil
}

func (h *harness) relationID(name string) (model.RelationInstanceID, error) {
	id, ok := h.relations[name]
	if !ok {
		return model.RelationInstanceID{}, notFound(runtime.ErrCodeRelationNotFound, name)
	}
	return id, nil
}

func notFound(code runtime.ErrorCode, name string) error {
	return &runtime.RuntimeError{Code: code, Message: "not registered", ID: name}
}

// errorCode maps an error to the code scenarios match on.
func errorCode(err error) string {
	var ce *behaviour.CreationError
	if errors.As(err, &ce) && ce.Kind == behaviour.KindAlreadyApplied {
		return string(ce.Kind)
	}
	if kind := behaviour.TransitionKind(err); kind != "" {
		return string(kind)
	}
	if code := runtime.ErrorCodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, behaviour.ErrFactoryNotFound) {
		return "FACTORY_NOT_FOUND"
	}
	return "ERROR"
}

// snapshot fills Result.Final with every live instance.
func (h *harness) snapshot() {
	for name, id := range h.entities {
		if e, ok := h.rt.Entity(id); ok {
			h.result.Final[name] = instanceState(e.Type(), e.Behaviours(), e.Properties().Snapshot())
		}
	}
	for name, id := range h.relations {
		if r, ok := h.rt.Relation(id); ok {
			h.result.Final[name] = instanceState(r.Type(), r.Behaviours(), r.Properties().Snapshot())
		}
	}
}

func instanceState(ty model.TypeID, tys []model.TypeID, props map[string]any) InstanceState {
	names := make([]string, len(tys))
	for i, t := range tys {
		names[i] = t.String()
	}
	return InstanceState{Type: ty.String(), Behaviours: names, Properties: props}
}
