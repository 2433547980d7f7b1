package behaviours

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/model"
)

// Registries groups the registries the built-in behaviours bind to.
type Registries struct {
	Entities         *behaviour.Registry[uuid.UUID]
	EntityComponents *behaviour.Registry[uuid.UUID]
	Relations        *behaviour.Registry[model.RelationInstanceID]
}

// Register binds every built-in factory to its owner type. A nil registry
// is skipped.
func Register(regs Registries, logger *slog.Logger) {
	if r := regs.Relations; r != nil {
		r.Register(ConnectorRelation, NewConnectorFactory(ConnectorBehaviour, Identity))
		r.Register(DefaultConnectorRelation, NewConnectorFactory(DefaultConnectorBehaviour, Identity))
		r.Register(IncrementConnectorRelation, NewConnectorFactory(IncrementConnectorBehaviour, Increment))
	}

	if r := regs.Entities; r != nil {
		r.Register(AddEntity, NewArithmeticGateFactory(AddBehaviour, OpAdd))
		r.Register(SubEntity, NewArithmeticGateFactory(SubBehaviour, OpSub))
		r.Register(MulEntity, NewArithmeticGateFactory(MulBehaviour, OpMul))
		r.Register(DivEntity, NewArithmeticGateFactory(DivBehaviour, OpDiv))
		r.Register(MaxEntity, NewArithmeticGateFactory(MaxBehaviour, OpMax))
		r.Register(MinEntity, NewArithmeticGateFactory(MinBehaviour, OpMin))
		r.Register(CounterEntity, NewCounterFactory(CounterBehaviour))
	}

	if r := regs.EntityComponents; r != nil {
		r.Register(AndComponent, NewLogicalGateFactory(AndBehaviour, OpAnd))
		r.Register(OrComponent, NewLogicalGateFactory(OrBehaviour, OpOr))
		r.Register(XorComponent, NewLogicalGateFactory(XorBehaviour, OpXor))
		r.Register(NotComponent, NewNotGateFactory(NotBehaviour))
		r.Register(ValueDebuggerComponent, NewValueDebuggerFactory(ValueDebuggerBehaviour, logger))
	}
}
