// Package types defines the shared data structures and error taxonomy for
// OptionsPicker. Values here are plain data; the only logic is the
// validating Option constructor so every package builds options the same way.
package types

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Error taxonomy. Operations wrap these with context; test with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicateName   = errors.New("duplicate option name")
	ErrNotFound        = errors.New("option not found")
	ErrEmptyCollection = errors.New("no options to select from")
	ErrConcurrentDraw  = errors.New("selection is already in progress")
	ErrFormat          = errors.New("invalid format")
)

// Option is a named, weighted choice. Treat it as an immutable value:
// to change an option, build a copy with WithName or WithWeight and
// replace it by ID.
type Option struct {
	ID     uuid.UUID
	Name   string
	Weight float64
}

// SelectionResult records one successful draw.
type SelectionResult struct {
	Option       Option
	Time         time.Time
	RandomValue  float64 // raw draw in [0, TotalWeight)
	TotalOptions int
	TotalWeight  float64
}

// NewOption validates name and weight and returns an Option with a fresh ID.
// The name is trimmed of surrounding whitespace.
func NewOption(name string, weight float64) (Option, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, weight); err != nil {
		return Option{}, err
	}
	return Option{ID: uuid.New(), Name: name, Weight: weight}, nil
}

// MustOption is NewOption for literals known to be valid.
func MustOption(name string, weight float64) Option {
	o, err := NewOption(name, weight)
	if err != nil {
		panic(err)
	}
	return o
}

// WithName returns a copy of o carrying a new (trimmed) name and the same ID.
func (o Option) WithName(name string) (Option, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, o.Weight); err != nil {
		return Option{}, err
	}
	o.Name = name
	return o, nil
}

// WithWeight returns a copy of o carrying a new weight and the same ID.
func (o Option) WithWeight(weight float64) (Option, error) {
	if err := validate(o.Name, weight); err != nil {
		return Option{}, err
	}
	o.Weight = weight
	return o, nil
}

// Validate reports whether o could have come from NewOption.
func (o Option) Validate() error {
	if o.ID == uuid.Nil {
		return fmt.Errorf("%w: option is unset", ErrInvalidArgument)
	}
	if strings.TrimSpace(o.Name) != o.Name {
		return fmt.Errorf("%w: option name %q is not trimmed", ErrInvalidArgument, o.Name)
	}
	return validate(o.Name, o.Weight)
}

func validate(name string, weight float64) error {
	if name == "" {
		return fmt.Errorf("%w: option name cannot be empty", ErrInvalidArgument)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return fmt.Errorf("%w: weight must be greater than 0, got %v", ErrInvalidArgument, weight)
	}
	return nil
}
