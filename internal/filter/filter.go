// Package filter turns the cart query-string mini-language into typed predicates.
//
// Parsing is split in two: Extract reads url.Values into a Set of raw Filters
// (strings only), Build coerces those strings per field and returns Predicates
// that can be applied to a gorm query.
package filter

import (
	"errors"
	"fmt"
)

type Operator string

const (
	OpEq    Operator = "eq"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpIn    Operator = "in"
	OpRange Operator = "range"
)

func (o Operator) comparison() bool {
	switch o {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Fields is the allow-list of filterable attributes, in extraction order.
var Fields = []string{
	"owner_id",
	"quantity",
	"price",
	"created_at",
	"last_updated",
	"description",
	"item_id",
}

// Filter is one of Eq, Cmp, In or Range.
type Filter interface {
	Operator() Operator
	filter()
}

type Eq struct {
	Value string
}

type Cmp struct {
	Op    Operator
	Value string
}

type In struct {
	Values []string
}

type Range struct {
	Lo, Hi string
}

func (Eq) Operator() Operator    { return OpEq }
func (c Cmp) Operator() Operator { return c.Op }
func (In) Operator() Operator    { return OpIn }
func (Range) Operator() Operator { return OpRange }

func (Eq) filter()    {}
func (Cmp) filter()   {}
func (In) filter()    {}
func (Range) filter() {}

// Set maps a field name to its single filter.
type Set map[string]Filter

var (
	ErrInvalidOperatorFormat = errors.New("invalid operator format")
	ErrUnsupportedOperator   = errors.New("unsupported operator")
	ErrInvalidRangeFormat    = errors.New("invalid range format")
	ErrInvalidFilterValue    = errors.New("invalid filter value")
	ErrInvalidRange          = errors.New("invalid range")
	ErrConflict              = errors.New("conflicting filters")
	ErrUnknownField          = errors.New("unknown filter field")
)

// Error is returned for every parse, coercion or conflict failure.
type Error struct {
	Field string
	Value string
	Err   error
	msg   string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	if e.Value != "" {
		return fmt.Sprintf("%s for %s: %q", e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%s for %s", e.Err, e.Field)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fieldError(field, value string, err error) *Error {
	return &Error{Field: field, Value: value, Err: err}
}
