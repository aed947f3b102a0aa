package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrMissingID       = errors.New("exercise has no id")
	ErrNoIntegrals     = errors.New("exercise has no integrals")
	ErrMissingVariable = errors.New("integral has no variable")
	ErrDuplicateOrder  = errors.New("integral orders are not a strict total order")
)

// ID is an exercise grouping key. Input files use both numbers and strings for it.
type ID string

// UnmarshalJSON accepts "id": 3 as well as "id": "3".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// CoordinateSystem names the coordinates an exercise is integrated in.
type CoordinateSystem string

const (
	Cartesian   CoordinateSystem = "cartesian"
	Polar       CoordinateSystem = "polar"
	Cylindrical CoordinateSystem = "cylindrical"
	Spherical   CoordinateSystem = "spherical"
)

// Limits holds integration bounds exactly as written in the input.
type Limits struct {
	Lower string `json:"lower"`
	Upper string `json:"upper"`
}

// Integral is one integration step. Lower Order values are evaluated first.
type Integral struct {
	Variable string `json:"var"`
	Limits   Limits `json:"limits"`
	Order    int    `json:"order"`
}

// Solution is filled in by the solver stage. Exact and Decimal are set together.
type Solution struct {
	Exact        *string  `json:"exact"`
	Decimal      *float64 `json:"decimal"`
	QuantityType *string  `json:"quantity_type"`
	Units        *string  `json:"units"`
}

// Available reports whether both the exact and the decimal value are present.
func (s *Solution) Available() bool {
	return s != nil && s.Exact != nil && *s.Exact != "" && s.Decimal != nil
}

// ExactValue returns the exact value or "".
func (s *Solution) ExactValue() string {
	if s == nil || s.Exact == nil {
		return ""
	}
	return *s.Exact
}

// Quantity returns the quantity type or "".
func (s *Solution) Quantity() string {
	if s == nil || s.QuantityType == nil {
		return ""
	}
	return *s.QuantityType
}

// DisplaySettings controls how an exercise is typeset.
type DisplaySettings struct {
	Units             string `json:"units"`
	DecimalPrecision  int    `json:"decimal_precision"`
	ShowSteps         bool   `json:"show_steps"`
	ShowEquation      bool   `json:"show_equation"`
	ShowQuantityLabel bool   `json:"show_quantity_label"`
}

type LaTeXContent struct {
	IntegralSetup *string `json:"integral_setup"`
	SolutionSteps *string `json:"solution_steps"`
	FinalResult   *string `json:"final_result"`
}

type ComputationDetails struct {
	IntermediateSteps []string          `json:"intermediate_steps"`
	Substitutions     map[string]string `json:"substitutions"`
	IntegrationMethod *string           `json:"integration_method"`
}

// Exercise is a single integral exercise record.
type Exercise struct {
	ID                 ID                  `json:"id"`
	IDLetter           *string             `json:"id_letter"`
	IDPart             *int                `json:"id_part"`
	Type               string              `json:"type"`
	Function           string              `json:"function"`
	Integrals          []Integral          `json:"integrals"`
	CoordinateSystem   CoordinateSystem    `json:"coordinate_system,omitempty"`
	Solution           *Solution           `json:"solution,omitempty"`
	LaTeX              *LaTeXContent       `json:"latex,omitempty"`
	ComputationDetails *ComputationDetails `json:"computation_details,omitempty"`
	DisplaySettings    *DisplaySettings    `json:"display_settings,omitempty"`
}

// Letter returns the sub-label or "".
func (e *Exercise) Letter() string {
	if e.IDLetter == nil {
		return ""
	}
	return strings.TrimSpace(*e.IDLetter)
}

// Validate checks the structural fields every later stage relies on.
func (e *Exercise) Validate() error {
	if strings.TrimSpace(string(e.ID)) == "" {
		return ErrMissingID
	}
	if len(e.Integrals) == 0 {
		return fmt.Errorf("exercise %s: %w", e.ID, ErrNoIntegrals)
	}
	seen := make(map[int]bool, len(e.Integrals))
	for i, in := range e.Integrals {
		if strings.TrimSpace(in.Variable) == "" {
			return fmt.Errorf("exercise %s, integral %d: %w", e.ID, i, ErrMissingVariable)
		}
		if seen[in.Order] {
			return fmt.Errorf("exercise %s, order %d: %w", e.ID, in.Order, ErrDuplicateOrder)
		}
		seen[in.Order] = true
	}
	return nil
}

// SortedIntegrals returns the integrals innermost first.
func (e *Exercise) SortedIntegrals() []Integral {
	out := make([]Integral, len(e.Integrals))
	copy(out, e.Integrals)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Variables returns the integration variables in input order.
func (e *Exercise) Variables() []string {
	vars := make([]string, 0, len(e.Integrals))
	for _, in := range e.Integrals {
		vars = append(vars, in.Variable)
	}
	return vars
}

// Precision returns the record's decimal precision. Only a record without
// display settings falls back to DefaultPrecision; an explicit 0 is kept.
func (e *Exercise) Precision() int {
	if e.DisplaySettings == nil {
		return DefaultPrecision
	}
	return e.DisplaySettings.DecimalPrecision
}

// Units returns the units a solution is expressed in: the solver's units when known,
// otherwise the display unit symbol.
func (e *Exercise) Units() string {
	if e.Solution != nil && e.Solution.Units != nil {
		return *e.Solution.Units
	}
	if e.DisplaySettings != nil {
		return e.DisplaySettings.Units
	}
	return ""
}

const (
	DefaultUnits     = "u"
	DefaultPrecision = 4
)

// StringPtr and friends keep literal construction of optional fields short.
func StringPtr(s string) *string  { return &s }
func IntPtr(i int) *int           { return &i }
func FloatPtr(f float64) *float64 { return &f }
