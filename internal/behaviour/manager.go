package behaviour

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// Manager attaches, detaches and drives behaviours of instances of type I.
//
// Bulk operations (AddBehaviours, AddBehaviour) are best effort: a factory
// that fails for one instance is logged and skipped. Single-target
// operations (Create, Connect, Disconnect, Reconnect) return their errors.
type Manager[ID comparable, I reactive.Instance[ID]] struct {
	registry  *Registry[ID]
	storage   *Storage[ID]
	logger    *slog.Logger
	listeners []Listener
	kind      string
}

// EntityManager manages behaviours of entities.
type EntityManager = Manager[uuid.UUID, *reactive.Entity]

// RelationManager manages behaviours of relations.
type RelationManager = Manager[model.RelationInstanceID, *reactive.Relation]

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger    *slog.Logger
	listeners []Listener
	kind      string
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithListener adds a lifecycle listener.
func WithListener(l Listener) Option {
	return func(o *managerOptions) {
		o.listeners = append(o.listeners, l)
	}
}

// WithKind labels log lines, e.g. "entity" or "relation component".
func WithKind(kind string) Option {
	return func(o *managerOptions) {
		o.kind = kind
	}
}

// NewManager creates a manager over a registry and a storage. Both may be
// shared with other components; the manager does not own them.
func NewManager[ID comparable, I reactive.Instance[ID]](registry *Registry[ID], storage *Storage[ID], opts ...Option) *Manager[ID, I] {
	o := managerOptions{logger: slog.Default(), kind: "instance"}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Manager[ID, I]{
		registry:  registry,
		storage:   storage,
		logger:    o.logger,
		listeners: o.listeners,
		kind:      o.kind,
	}
	if storage.onCloseError == nil {
		storage.onCloseError = m.closeFailed
	}
	return m
}

func (m *Manager[ID, I]) closeFailed(id ID, ty model.TypeID, err error) {
	m.logger.Debug("disconnect on remove failed",
		"kind", m.kind,
		"behaviour", ty.String(),
		"instance", fmt.Sprint(id),
		"error", err,
	)
	m.emit(EventTransitionFailed, id, ty, StateConnected, err)
}

// NewEntityManager creates an EntityManager with its own storage.
func NewEntityManager(registry *Registry[uuid.UUID], opts ...Option) *EntityManager {
	storage := NewStorage(WithIDOrder(model.CompareEntityIDs))
	return NewManager[uuid.UUID, *reactive.Entity](registry, storage, append([]Option{WithKind("entity")}, opts...)...)
}

// NewRelationManager creates a RelationManager with its own storage.
func NewRelationManager(registry *Registry[model.RelationInstanceID], opts ...Option) *RelationManager {
	storage := NewStorage(WithIDOrder(model.CompareRelationIDs))
	return NewManager[model.RelationInstanceID, *reactive.Relation](registry, storage, append([]Option{WithKind("relation")}, opts...)...)
}

// Registry returns the manager's registry.
func (m *Manager[ID, I]) Registry() *Registry[ID] { return m.registry }

// Storage returns the manager's storage.
func (m *Manager[ID, I]) Storage() *Storage[ID] { return m.storage }

func (m *Manager[ID, I]) emit(kind EventKind, id ID, ty model.TypeID, state State, err error) {
	if len(m.listeners) == 0 {
		return
	}
	ev := Event{Kind: kind, InstanceID: fmt.Sprint(id), BehaviourType: ty, State: state, Err: err}
	for _, l := range m.listeners {
		l.OnBehaviourEvent(ev)
	}
}

// AddBehaviours attaches every behaviour registered for the instance's type.
func (m *Manager[ID, I]) AddBehaviours(inst I) {
	for _, f := range m.registry.Get(inst.Type()) {
		m.add(inst, f)
	}
}

// AddBehaviour attaches one behaviour type if a factory for it exists.
func (m *Manager[ID, I]) AddBehaviour(inst I, ty model.TypeID) {
	f, ok := m.registry.FactoryByBehaviourType(ty)
	if !ok {
		m.logger.Debug("no factory for behaviour",
			"kind", m.kind,
			"behaviour", ty.String(),
			"instance", fmt.Sprint(inst.ID()),
		)
		return
	}
	m.add(inst, f)
}

func (m *Manager[ID, I]) add(inst I, f Factory[ID]) {
	if _, err := m.create(inst, f); err != nil {
		m.logger.Debug("behaviour not added",
			"kind", m.kind,
			"behaviour", f.BehaviourType().String(),
			"instance", fmt.Sprint(inst.ID()),
			"error", err,
		)
	}
}

// Create attaches one behaviour type and returns it, surfacing every error.
func (m *Manager[ID, I]) Create(inst I, ty model.TypeID) (*Behaviour[ID], error) {
	f, ok := m.registry.FactoryByBehaviourType(ty)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFactoryNotFound, ty)
	}
	return m.create(inst, f)
}

func (m *Manager[ID, I]) create(inst I, f Factory[ID]) (*Behaviour[ID], error) {
	id, ty := inst.ID(), f.BehaviourType()
	// The slot is claimed before connecting: concurrent creates of the same
	// pair wire observers under the same handles.
	if err := m.storage.Reserve(id, ty); err != nil {
		err = &CreationError{Kind: KindAlreadyApplied, Ty: ty, Err: err}
		m.emit(EventCreateFailed, id, ty, StateCreated, err)
		return nil, err
	}
	b, err := f.Create(inst)
	if err != nil {
		m.storage.Release(id, ty)
		m.emit(EventCreateFailed, id, ty, StateCreated, err)
		return nil, err
	}
	m.storage.Commit(id, ty, b)
	m.logger.Debug("added behaviour",
		"kind", m.kind,
		"behaviour", ty.String(),
		"instance", fmt.Sprint(id),
	)
	m.emit(EventAdded, id, ty, b.State(), nil)
	return b, nil
}

// RemoveBehaviour disconnects, ignoring disconnect errors, and removes one
// behaviour of the instance.
func (m *Manager[ID, I]) RemoveBehaviour(inst I, ty model.TypeID) {
	m.RemoveBehaviourByID(inst.ID(), ty)
}

// RemoveBehaviourByID is RemoveBehaviour for callers that only hold the id.
func (m *Manager[ID, I]) RemoveBehaviourByID(id ID, ty model.TypeID) {
	b, ok := m.storage.Get(id, ty)
	if !ok {
		return
	}
	if b.State() == StateConnected {
		if err := b.Disconnect(); err != nil {
			m.logger.Debug("disconnect before remove failed",
				"kind", m.kind,
				"behaviour", ty.String(),
				"instance", fmt.Sprint(id),
				"error", err,
			)
		}
	}
	if b, ok := m.storage.Remove(id, ty); ok {
		m.logger.Debug("removed behaviour",
			"kind", m.kind,
			"behaviour", ty.String(),
			"instance", fmt.Sprint(id),
		)
		m.emit(EventRemoved, id, ty, b.State(), nil)
	}
}

// RemoveBehaviours removes every behaviour of the instance. Instance
// deletion must call this before releasing the instance.
func (m *Manager[ID, I]) RemoveBehaviours(inst I) {
	m.RemoveBehavioursByID(inst.ID())
}

// RemoveBehavioursByID removes every behaviour of the instance with the given id.
func (m *Manager[ID, I]) RemoveBehavioursByID(id ID) {
	for _, ty := range m.storage.RemoveAll(id) {
		m.emit(EventRemoved, id, ty, StateReady, nil)
	}
}

// RemoveBehavioursByBehaviour removes one behaviour type from every instance.
func (m *Manager[ID, I]) RemoveBehavioursByBehaviour(ty model.TypeID) {
	ids := m.storage.RemoveByBehaviour(ty)
	for _, id := range ids {
		m.emit(EventRemoved, id, ty, StateReady, nil)
	}
	m.logger.Debug("removed behaviours of type",
		"kind", m.kind,
		"behaviour", ty.String(),
		"count", len(ids),
	)
}

// Has reports whether the instance has a live behaviour of type ty.
func (m *Manager[ID, I]) Has(inst I, ty model.TypeID) bool {
	return m.storage.Has(inst.ID(), ty)
}

// GetAll returns the behaviour types of the instance, sorted.
func (m *Manager[ID, I]) GetAll(inst I) []model.TypeID {
	return m.storage.BehavioursByInstance(inst.ID())
}

// Get returns the live behaviour of type ty on the instance.
func (m *Manager[ID, I]) Get(inst I, ty model.TypeID) (*Behaviour[ID], bool) {
	return m.storage.Get(inst.ID(), ty)
}

// InstancesByBehaviour returns the instances that have a behaviour of type ty.
func (m *Manager[ID, I]) InstancesByBehaviour(ty model.TypeID) []I {
	var out []I
	for _, inst := range m.storage.InstancesByBehaviour(ty) {
		if typed, ok := inst.(I); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Connect drives a stored behaviour to Connected. A missing behaviour is a
// KindConnectFailed error.
func (m *Manager[ID, I]) Connect(inst I, ty model.TypeID) error {
	id := inst.ID()
	b, ok := m.storage.Get(id, ty)
	if !ok {
		return m.failed(id, &TransitionError{Kind: KindConnectFailed, Ty: ty, To: StateConnected, Err: ErrBehaviourNotFound})
	}
	if err := b.Connect(); err != nil {
		return m.failed(id, err)
	}
	m.emit(EventConnected, id, ty, b.State(), nil)
	return nil
}

// Disconnect drives a stored behaviour from Connected to Ready. A missing
// behaviour is a KindDisconnectFailed error.
func (m *Manager[ID, I]) Disconnect(inst I, ty model.TypeID) error {
	return m.disconnect(inst.ID(), ty)
}

func (m *Manager[ID, I]) disconnect(id ID, ty model.TypeID) error {
	b, ok := m.storage.Get(id, ty)
	if !ok {
		return m.failed(id, &TransitionError{Kind: KindDisconnectFailed, Ty: ty, From: StateConnected, To: StateReady, Err: ErrBehaviourNotFound})
	}
	if err := b.Disconnect(); err != nil {
		return m.failed(id, err)
	}
	m.emit(EventDisconnected, id, ty, b.State(), nil)
	return nil
}

// Reconnect disconnects and connects a stored behaviour again. A missing
// behaviour is a KindInvalidTransition error.
func (m *Manager[ID, I]) Reconnect(inst I, ty model.TypeID) error {
	id := inst.ID()
	b, ok := m.storage.Get(id, ty)
	if !ok {
		return m.failed(id, &TransitionError{Kind: KindInvalidTransition, Ty: ty, From: StateConnected, To: StateConnected, Err: ErrBehaviourNotFound})
	}
	if err := b.Reconnect(); err != nil {
		return m.failed(id, err)
	}
	m.emit(EventReconnected, id, ty, b.State(), nil)
	return nil
}

func (m *Manager[ID, I]) failed(id ID, err error) error {
	var te *TransitionError
	if errors.As(err, &te) {
		state := te.From
		if b, found := m.storage.Get(id, te.Ty); found {
			state = b.State()
		}
		m.emit(EventTransitionFailed, id, te.Ty, state, err)
	}
	return err
}
