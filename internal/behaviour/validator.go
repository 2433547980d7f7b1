package behaviour

import (
	"fmt"

	"github.com/roach88/rgraph/internal/reactive"
)

// Validator decides whether a behaviour applies to an instance.
type Validator[ID comparable] interface {
	Validate(inst reactive.Instance[ID]) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[ID comparable] func(inst reactive.Instance[ID]) error

func (f ValidatorFunc[ID]) Validate(inst reactive.Instance[ID]) error {
	return f(inst)
}

// PropertyValidator requires the instance to have every named property.
type PropertyValidator[ID comparable] struct {
	Required []string
}

// NewPropertyValidator creates a validator for the given property names.
func NewPropertyValidator[ID comparable](required ...string) PropertyValidator[ID] {
	return PropertyValidator[ID]{Required: required}
}

func (v PropertyValidator[ID]) Validate(inst reactive.Instance[ID]) error {
	for _, name := range v.Required {
		if !inst.HasProperty(name) {
			return fmt.Errorf("missing property %q", name)
		}
	}
	return nil
}

// AllValidators combines validators; the first failure wins.
func AllValidators[ID comparable](vs ...Validator[ID]) Validator[ID] {
	return ValidatorFunc[ID](func(inst reactive.Instance[ID]) error {
		for _, v := range vs {
			if err := v.Validate(inst); err != nil {
				return err
			}
		}
		return nil
	})
}
