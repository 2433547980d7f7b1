package behaviours

import (
	"math"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/model"
	"github.com/roach88/rgraph/internal/reactive"
)

// NumberOp combines two operands. ok=false leaves the result unchanged.
type NumberOp func(lhs, rhs float64) (result float64, ok bool)

// BoolOp combines two boolean operands.
type BoolOp func(lhs, rhs bool) bool

// Arithmetic operations of the built-in gates.
var (
	OpAdd NumberOp = func(l, r float64) (float64, bool) { return l + r, true }
	OpSub NumberOp = func(l, r float64) (float64, bool) { return l - r, true }
	OpMul NumberOp = func(l, r float64) (float64, bool) { return l * r, true }
	OpMax NumberOp = func(l, r float64) (float64, bool) { return math.Max(l, r), true }
	OpMin NumberOp = func(l, r float64) (float64, bool) { return math.Min(l, r), true }
	OpDiv NumberOp = func(l, r float64) (float64, bool) {
		if r == 0 {
			return 0, false
		}
		return l / r, true
	}
)

// Logical operations of the built-in gates.
var (
	OpAnd BoolOp = func(l, r bool) bool { return l && r }
	OpOr  BoolOp = func(l, r bool) bool { return l || r }
	OpXor BoolOp = func(l, r bool) bool { return l != r }
)

// gateFactory builds an entity behaviour that recomputes result whenever
// one of the inputs changes, reading the other inputs from their stored
// values.
func gateFactory(ty model.TypeID, inputs []string, compute func(inst reactive.Instance[uuid.UUID]) (any, bool)) *behaviour.FuncFactory[uuid.UUID] {
	required := append([]string{PropertyResult}, inputs...)
	return behaviour.NewFactory(ty, func(inst reactive.Instance[uuid.UUID]) (behaviour.Validator[uuid.UUID], behaviour.Transitions[uuid.UUID], error) {
		return behaviour.NewPropertyValidator[uuid.UUID](required...), behaviour.ObserverTransitions[uuid.UUID]{
			Observers: reactive.NewPropertyObservers(ty.UUID(), inst.ID().String()),
			Wire: func(inst reactive.Instance[uuid.UUID], obs *reactive.PropertyObservers) error {
				recompute := func(any) {
					if result, ok := compute(inst); ok {
						inst.Set(PropertyResult, result)
					}
				}
				for _, name := range inputs {
					obs.Observe(inst, name, recompute)
				}
				return nil
			},
		}, nil
	})
}

// NewArithmeticGateFactory creates a gate computing result = op(lhs, rhs).
// Non-numeric inputs leave the result unchanged.
func NewArithmeticGateFactory(ty model.TypeID, op NumberOp) *behaviour.FuncFactory[uuid.UUID] {
	return gateFactory(ty, []string{PropertyLHS, PropertyRHS}, func(inst reactive.Instance[uuid.UUID]) (any, bool) {
		lhs, ok := inst.AsF64(PropertyLHS)
		if !ok {
			return nil, false
		}
		rhs, ok := inst.AsF64(PropertyRHS)
		if !ok {
			return nil, false
		}
		result, ok := op(lhs, rhs)
		return result, ok
	})
}

// NewLogicalGateFactory creates a gate computing result = op(lhs, rhs).
// Inputs are interpreted by JSON truthiness.
func NewLogicalGateFactory(ty model.TypeID, op BoolOp) *behaviour.FuncFactory[uuid.UUID] {
	return gateFactory(ty, []string{PropertyLHS, PropertyRHS}, func(inst reactive.Instance[uuid.UUID]) (any, bool) {
		lhs, _ := inst.Get(PropertyLHS)
		rhs, _ := inst.Get(PropertyRHS)
		return op(model.Truthy(lhs), model.Truthy(rhs)), true
	})
}

// NewNotGateFactory creates a gate computing result = !lhs.
func NewNotGateFactory(ty model.TypeID) *behaviour.FuncFactory[uuid.UUID] {
	return gateFactory(ty, []string{PropertyLHS}, func(inst reactive.Instance[uuid.UUID]) (any, bool) {
		lhs, _ := inst.Get(PropertyLHS)
		return !model.Truthy(lhs), true
	})
}
