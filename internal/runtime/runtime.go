package runtime

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/behaviours"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
	"github.com/roach88/rgraph/internal/signal"
)

// PropertyListener observes every value sent on a property of a registered
// instance. Listeners are called synchronously on the sending goroutine.
type PropertyListener interface {
	OnPropertyChange(instanceID, property string, value any)
}

// recordScope namespaces the observer handles the runtime installs for
// property listeners.
var recordScope = uuid.NewSHA1(uuid.NameSpaceOID, []byte("rgraph.runtime.properties"))

// Runtime holds the registered instances and the managers that attach
// behaviours to them.
//
// Thread-safety: all methods are safe for concurrent use. Propagation runs
// on the goroutine that writes a property.
type Runtime struct {
	catalog *model.Catalog
	ids     reactive.IDGenerator
	logger  *slog.Logger

	entityRegistry            *behaviour.Registry[uuid.UUID]
	entityComponentRegistry   *behaviour.Registry[uuid.UUID]
	relationRegistry          *behaviour.Registry[model.RelationInstanceID]
	relationComponentRegistry *behaviour.Registry[model.RelationInstanceID]

	entityBehaviours            *behaviour.EntityManager
	entityComponentBehaviours   *behaviour.EntityComponentManager
	relationBehaviours          *behaviour.RelationManager
	relationComponentBehaviours *behaviour.RelationComponentManager

	maxDepth           int
	builtins           bool
	behaviourListeners []behaviour.Listener
	propertyListeners  []PropertyListener

	mu        sync.RWMutex
	entities  map[uuid.UUID]*reactive.Entity
	relations map[model.RelationInstanceID]*reactive.Relation
	deleting  map[uuid.UUID]struct{} // entities DeleteEntity is tearing down
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithCatalog sets the type catalog. Default: the built-in behaviour types.
func WithCatalog(c *model.Catalog) Option {
	return func(rt *Runtime) {
		rt.catalog = c
	}
}

// WithIDGenerator sets the entity id generator. Default: UUIDv7.
func WithIDGenerator(g reactive.IDGenerator) Option {
	return func(rt *Runtime) {
		rt.ids = g
	}
}

// WithMaxDepth enables the propagation depth guard on every property
// signal. Sends beyond the limit are dropped and logged at Warn.
// Zero (the default) trusts behaviour authors to avoid cycles.
func WithMaxDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxDepth = n
	}
}

// WithoutBuiltins skips registering the built-in behaviours.
func WithoutBuiltins() Option {
	return func(rt *Runtime) {
		rt.builtins = false
	}
}

// WithBehaviourListener adds a listener to every behaviour manager.
func WithBehaviourListener(l behaviour.Listener) Option {
	return func(rt *Runtime) {
		rt.behaviourListeners = append(rt.behaviourListeners, l)
	}
}

// WithPropertyListener adds a listener for property values.
func WithPropertyListener(l PropertyListener) Option {
	return func(rt *Runtime) {
		rt.propertyListeners = append(rt.propertyListeners, l)
	}
}

// WithRecorder records behaviour and property events through r.
func WithRecorder(r *Recorder) Option {
	return func(rt *Runtime) {
		rt.behaviourListeners = append(rt.behaviourListeners, r)
		rt.propertyListeners = append(rt.propertyListeners, r)
	}
}

// New creates a runtime.
func New(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		ids:                       reactive.UUIDv7Generator{},
		logger:                    slog.Default(),
		builtins:                  true,
		entityRegistry:            behaviour.NewRegistry[uuid.UUID](),
		entityComponentRegistry:   behaviour.NewRegistry[uuid.UUID](),
		relationRegistry:          behaviour.NewRegistry[model.RelationInstanceID](),
		relationComponentRegistry: behaviour.NewRegistry[model.RelationInstanceID](),
		entities:                  make(map[uuid.UUID]*reactive.Entity),
		relations:                 make(map[model.RelationInstanceID]*reactive.Relation),
		deleting:                  make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.catalog == nil {
		c, err := behaviours.Catalog()
		if err != nil {
			return nil, fmt.Errorf("built-in catalog: %w", err)
		}
		rt.catalog = c
	}

	managerOpts := []behaviour.Option{behaviour.WithLogger(rt.logger)}
	for _, l := range rt.behaviourListeners {
		managerOpts = append(managerOpts, behaviour.WithListener(l))
	}
	rt.entityBehaviours = behaviour.NewEntityManager(rt.entityRegistry, managerOpts...)
	rt.entityComponentBehaviours = behaviour.NewEntityComponentManager(rt.entityComponentRegistry, managerOpts...)
	rt.relationBehaviours = behaviour.NewRelationManager(rt.relationRegistry, managerOpts...)
	rt.relationComponentBehaviours = behaviour.NewRelationComponentManager(rt.relationComponentRegistry, managerOpts...)

	if rt.builtins {
		behaviours.Register(behaviours.Registries{
			Entities:         rt.entityRegistry,
			EntityComponents: rt.entityComponentRegistry,
			Relations:        rt.relationRegistry,
		}, rt.logger)
	}
	return rt, nil
}

func (rt *Runtime) Catalog() *model.Catalog { return rt.catalog }

func (rt *Runtime) EntityRegistry() *behaviour.Registry[uuid.UUID] { return rt.entityRegistry }

func (rt *Runtime) EntityComponentRegistry() *behaviour.Registry[uuid.UUID] {
	return rt.entityComponentRegistry
}

func (rt *Runtime) RelationRegistry() *behaviour.Registry[model.RelationInstanceID] {
	return rt.relationRegistry
}

func (rt *Runtime) RelationComponentRegistry() *behaviour.Registry[model.RelationInstanceID] {
	return rt.relationComponentRegistry
}

func (rt *Runtime) EntityBehaviours() *behaviour.EntityManager { return rt.entityBehaviours }

func (rt *Runtime) EntityComponentBehaviours() *behaviour.EntityComponentManager {
	return rt.entityComponentBehaviours
}

func (rt *Runtime) RelationBehaviours() *behaviour.RelationManager { return rt.relationBehaviours }

func (rt *Runtime) RelationComponentBehaviours() *behaviour.RelationComponentManager {
	return rt.relationComponentBehaviours
}

// CreateEntity creates and registers an entity of a catalog type with a
// generated id.
func (rt *Runtime) CreateEntity(ty model.TypeID, props map[string]any) (*reactive.Entity, error) {
	return rt.CreateEntityWithID(rt.ids.Generate(), ty, props)
}

// CreateEntityWithID creates and registers an entity of a catalog type.
//
// Every declared property is created with its declared mutability, taking
// the value from props or the declared default. Values in props that the
// type does not declare become mutable properties.
func (rt *Runtime) CreateEntityWithID(id uuid.UUID, ty model.TypeID, props map[string]any) (*reactive.Entity, error) {
	et, ok := rt.catalog.EntityType(ty)
	if !ok {
		return nil, newError(ErrCodeUnknownType, ty, "entity type %s is not declared", ty.Definition())
	}
	e := reactive.NewEntity(id, ty, nil)
	rt.hydrate(e, ty, props)
	for _, c := range et.Components {
		e.AddComponent(c)
	}
	if err := rt.RegisterEntity(e); err != nil {
		return nil, err
	}
	return e, nil
}

// hydrate adds the catalog's property declarations for ty to inst.
func (rt *Runtime) hydrate(inst interface {
	AddProperty(name string, m model.Mutability, value any)
}, ty model.TypeID, props map[string]any) {
	declared := make(map[string]bool)
	for _, pt := range rt.catalog.PropertyTypes(ty) {
		declared[pt.Name] = true
		value, ok := props[pt.Name]
		if ok {
			value = model.Normalize(value)
		} else {
			value = pt.DefaultValue()
		}
		inst.AddProperty(pt.Name, pt.Mutability, value)
	}
	for _, name := range model.SortedKeys(props) {
		if !declared[name] {
			inst.AddProperty(name, model.Mutable, model.Normalize(props[name]))
		}
	}
}

// RegisterEntity adds a prebuilt entity and attaches the behaviours of its
// type and of each of its components. Attaching is best effort: behaviours
// that do not apply are skipped.
func (rt *Runtime) RegisterEntity(e *reactive.Entity) error {
	rt.mu.Lock()
	if _, exists := rt.entities[e.ID()]; exists {
		rt.mu.Unlock()
		return newError(ErrCodeEntityExists, e.ID(), "entity already registered")
	}
	rt.entities[e.ID()] = e
	rt.mu.Unlock()

	rt.configure(e, e.ID().String(), e.Properties().Names())
	rt.entityBehaviours.AddBehaviours(e)
	rt.entityComponentBehaviours.AddBehaviours(e)

	rt.logger.Debug("registered entity",
		"entity", e.ID().String(),
		"type", e.Type().String(),
		"behaviours", len(e.Behaviours()),
	)
	return nil
}

// configurable is the part of an entity or relation the runtime configures
// on registration.
type configurable interface {
	ConfigureSignals(opts ...signal.Option)
	ObserveWithHandle(name string, fn func(any), h signal.HandleID) bool
}

// configure applies the depth guard and installs property listeners.
// Listener observers are installed before any behaviour connects, so they
// see a value before the behaviours it triggers.
func (rt *Runtime) configure(inst configurable, id string, names []string) {
	rt.configureSignals(inst, id)
	rt.observeProperties(inst, id, names)
}

func (rt *Runtime) observeProperties(inst configurable, id string, names []string) {
	if len(rt.propertyListeners) == 0 {
		return
	}
	for _, name := range names {
		inst.ObserveWithHandle(name, rt.propertyObserver(id, name), signal.HandleFor(recordScope, id, name))
	}
}

func (rt *Runtime) configureSignals(inst configurable, id string) {
	if rt.maxDepth <= 0 {
		return
	}
	inst.ConfigureSignals(
		signal.WithMaxDepth(rt.maxDepth),
		signal.WithOverflowHandler(func(err *signal.DepthExceededError) {
			rt.logger.Warn("propagation depth exceeded",
				"instance", id,
				"depth", err.Depth,
				"limit", err.Limit,
			)
		}),
	)
}

func (rt *Runtime) propertyObserver(id, name string) func(any) {
	return func(v any) {
		for _, l := range rt.propertyListeners {
			l.OnPropertyChange(id, name, v)
		}
	}
}

// ObserverCount returns the number of observers on a property, not
// counting the one the runtime installs for property listeners.
func (rt *Runtime) ObserverCount(inst interface {
	ObserverCount(name string) int
}, name string) int {
	n := inst.ObserverCount(name)
	if len(rt.propertyListeners) > 0 && n > 0 {
		n--
	}
	return n
}

// AddComponent adds a catalog component to an entity, creating its
// missing properties, and attaches the component's behaviours.
func (rt *Runtime) AddComponent(entityID uuid.UUID, componentTy model.TypeID) error {
	e, ok := rt.Entity(entityID)
	if !ok {
		return newError(ErrCodeEntityNotFound, entityID, "entity not registered")
	}
	comp, ok := rt.catalog.Component(componentTy)
	if !ok {
		return newError(ErrCodeUnknownType, componentTy, "component %s is not declared", componentTy.Definition())
	}
	before := e.Properties().Names()
	e.AddComponentWithProperties(comp)
	var added []string
	for _, name := range e.Properties().Names() {
		if !slices.Contains(before, name) {
			added = append(added, name)
		}
	}
	rt.observeProperties(e, e.ID().String(), added)
	rt.entityComponentBehaviours.AddBehavioursToComponent(e, componentTy)
	return nil
}

// RemoveComponent detaches a component's behaviours and removes the
// component from the entity. Its properties are kept.
func (rt *Runtime) RemoveComponent(entityID uuid.UUID, componentTy model.TypeID) error {
	e, ok := rt.Entity(entityID)
	if !ok {
		return newError(ErrCodeEntityNotFound, entityID, "entity not registered")
	}
	rt.entityComponentBehaviours.RemoveBehavioursFromComponent(e, componentTy)
	e.RemoveComponent(componentTy)
	return nil
}

// CreateRelation creates and registers a relation between two registered
// entities.
func (rt *Runtime) CreateRelation(outboundID uuid.UUID, ty model.RelationInstanceTypeID, inboundID uuid.UUID, props map[string]any) (*reactive.Relation, error) {
	rtype, ok := rt.catalog.RelationType(ty.Type)
	if !ok {
		return nil, newError(ErrCodeUnknownType, ty.Type, "relation type %s is not declared", ty.Type.Definition())
	}
	out, ok := rt.Entity(outboundID)
	if !ok {
		return nil, newError(ErrCodeEntityNotFound, outboundID, "outbound entity not registered")
	}
	in, ok := rt.Entity(inboundID)
	if !ok {
		return nil, newError(ErrCodeEntityNotFound, inboundID, "inbound entity not registered")
	}
	if !rtype.OutboundType.IsZero() && out.Type() != rtype.OutboundType {
		return nil, newError(ErrCodeInvalidEndpoint, outboundID, "outbound entity is %s, want %s", out.Type(), rtype.OutboundType)
	}
	if !rtype.InboundType.IsZero() && in.Type() != rtype.InboundType {
		return nil, newError(ErrCodeInvalidEndpoint, inboundID, "inbound entity is %s, want %s", in.Type(), rtype.InboundType)
	}

	r := reactive.NewRelation(out, ty, in, nil)
	rt.hydrate(r, ty.Type, props)
	for _, c := range rtype.Components {
		r.AddComponent(c)
	}
	if err := rt.RegisterRelation(r); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterRelation adds a prebuilt relation. Both endpoints must be
// registered.
func (rt *Runtime) RegisterRelation(r *reactive.Relation) error {
	id := r.ID()
	rt.mu.Lock()
	if !rt.live(id.OutboundID) {
		rt.mu.Unlock()
		return newError(ErrCodeEntityNotFound, id.OutboundID, "outbound entity not registered")
	}
	if !rt.live(id.InboundID) {
		rt.mu.Unlock()
		return newError(ErrCodeEntityNotFound, id.InboundID, "inbound entity not registered")
	}
	if _, exists := rt.relations[id]; exists {
		rt.mu.Unlock()
		return newError(ErrCodeRelationExists, id, "relation already registered")
	}
	rt.relations[id] = r
	rt.mu.Unlock()

	rt.configure(r, id.String(), r.Properties().Names())
	rt.relationBehaviours.AddBehaviours(r)
	rt.relationComponentBehaviours.AddBehaviours(r)

	rt.logger.Debug("registered relation",
		"relation", id.String(),
		"behaviours", len(r.Behaviours()),
	)
	return nil
}

// DeleteEntity deletes the relations touching the entity, removes its
// behaviours and drops it.
//
// From the start of the call the entity counts as gone for RegisterRelation,
// so no relation created meanwhile can outlive it.
func (rt *Runtime) DeleteEntity(id uuid.UUID) error {
	rt.mu.Lock()
	e, ok := rt.entities[id]
	if !ok || !rt.live(id) {
		rt.mu.Unlock()
		return newError(ErrCodeEntityNotFound, id, "entity not registered")
	}
	rt.deleting[id] = struct{}{}
	var touching []model.RelationInstanceID
	for relID := range rt.relations {
		if relID.Touches(id) {
			touching = append(touching, relID)
		}
	}
	rt.mu.Unlock()

	slices.SortFunc(touching, model.CompareRelationIDs)
	for _, relID := range touching {
		// A concurrent delete may have won; either way it is gone.
		if err := rt.DeleteRelation(relID); err != nil && !IsNotFound(err) {
			rt.mu.Lock()
			delete(rt.deleting, id)
			rt.mu.Unlock()
			return err
		}
	}

	rt.entityComponentBehaviours.RemoveBehavioursByID(id)
	rt.entityBehaviours.RemoveBehavioursByID(id)
	e.RemoveAllObservers()

	rt.mu.Lock()
	delete(rt.entities, id)
	delete(rt.deleting, id)
	rt.mu.Unlock()

	rt.logger.Debug("deleted entity",
		"entity", id.String(),
		"relations", len(touching),
	)
	return nil
}

// DeleteRelation removes a relation's behaviours and drops it.
func (rt *Runtime) DeleteRelation(id model.RelationInstanceID) error {
	rt.mu.Lock()
	r, ok := rt.relations[id]
	delete(rt.relations, id)
	rt.mu.Unlock()
	if !ok {
		return newError(ErrCodeRelationNotFound, id, "relation not registered")
	}

	rt.relationComponentBehaviours.RemoveBehavioursByID(id)
	rt.relationBehaviours.RemoveBehavioursByID(id)
	r.RemoveAllObservers()

	rt.logger.Debug("deleted relation", "relation", id.String())
	return nil
}

// Entity returns a registered entity.
func (rt *Runtime) Entity(id uuid.UUID) (*reactive.Entity, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	e, ok := rt.entities[id]
	return e, ok
}

// Relation returns a registered relation.
func (rt *Runtime) Relation(id model.RelationInstanceID) (*reactive.Relation, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	r, ok := rt.relations[id]
	return r, ok
}

// Entities returns the registered entities ordered by id.
func (rt *Runtime) Entities() []*reactive.Entity {
	rt.mu.RLock()
	out := make([]*reactive.Entity, 0, len(rt.entities))
	for _, e := range rt.entities {
		out = append(out, e)
	}
	rt.mu.RUnlock()
	slices.SortFunc(out, func(a, b *reactive.Entity) int {
		return model.CompareEntityIDs(a.ID(), b.ID())
	})
	return out
}

// Relations returns the registered relations ordered by type, then
// endpoints.
func (rt *Runtime) Relations() []*reactive.Relation {
	rt.mu.RLock()
	out := make([]*reactive.Relation, 0, len(rt.relations))
	for _, r := range rt.relations {
		out = append(out, r)
	}
	rt.mu.RUnlock()
	slices.SortFunc(out, func(a, b *reactive.Relation) int {
		return model.CompareRelationIDs(a.ID(), b.ID())
	})
	return out
}

// live reports whether the entity is registered and not being deleted.
// Callers hold rt.mu.
func (rt *Runtime) live(id uuid.UUID) bool {
	if _, ok := rt.entities[id]; !ok {
		return false
	}
	_, deleting := rt.deleting[id]
	return !deleting
}

// Clear deletes every instance.
func (rt *Runtime) Clear() {
	for _, r := range rt.Relations() {
		_ = rt.DeleteRelation(r.ID())
	}
	for _, e := range rt.Entities() {
		_ = rt.DeleteEntity(e.ID())
	}
}
