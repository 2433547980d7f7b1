package behaviours

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// NewCounterFactory creates a behaviour that adds one to result for every
// truthy value sent on trigger.
func NewCounterFactory(ty model.TypeID) *behaviour.FuncFactory[uuid.UUID] {
	return behaviour.NewFactory(ty, func(inst reactive.Instance[uuid.UUID]) (behaviour.Validator[uuid.UUID], behaviour.Transitions[uuid.UUID], error) {
		return behaviour.NewPropertyValidator[uuid.UUID](PropertyTrigger, PropertyResult), behaviour.ObserverTransitions[uuid.UUID]{
			Observers: reactive.NewPropertyObservers(ty.UUID(), inst.ID().String()),
			InitFn: func(inst reactive.Instance[uuid.UUID]) error {
				if _, ok := inst.AsF64(PropertyResult); !ok {
					inst.SetNoPropagate(PropertyResult, float64(0))
				}
				return nil
			},
			Wire: func(inst reactive.Instance[uuid.UUID], obs *reactive.PropertyObservers) error {
				obs.Observe(inst, PropertyTrigger, func(v any) {
					if !model.Truthy(v) {
						return
					}
					n, _ := inst.AsF64(PropertyResult)
					inst.Set(PropertyResult, n+1)
				})
				return nil
			},
		}, nil
	})
}

// NewValueDebuggerFactory creates a behaviour that logs every value sent on
// the value property at debug level.
func NewValueDebuggerFactory(ty model.TypeID, logger *slog.Logger) *behaviour.FuncFactory[uuid.UUID] {
	if logger == nil {
		logger = slog.Default()
	}
	return behaviour.NewFactory(ty, func(inst reactive.Instance[uuid.UUID]) (behaviour.Validator[uuid.UUID], behaviour.Transitions[uuid.UUID], error) {
		id := inst.ID().String()
		return behaviour.NewPropertyValidator[uuid.UUID](PropertyValue), behaviour.ObserverTransitions[uuid.UUID]{
			Observers: reactive.NewPropertyObservers(ty.UUID(), id),
			Wire: func(inst reactive.Instance[uuid.UUID], obs *reactive.PropertyObservers) error {
				obs.Observe(inst, PropertyValue, func(v any) {
					logger.Debug("value changed",
						"instance", id,
						"type", inst.Type().String(),
						"value", v,
					)
				})
				return nil
			},
		}, nil
	})
}
