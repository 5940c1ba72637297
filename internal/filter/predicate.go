package filter

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Predicate is a coerced comparison against one column. Range carries two
// args (lo, hi), In carries one arg per list element, the rest carry one.
type Predicate struct {
	Column string
	Op     Operator
	Args   []any
}

// Scope applies the predicate as a WHERE condition.
func (p Predicate) Scope(db *gorm.DB) *gorm.DB {
	col := clause.Column{Name: p.Column}
	switch p.Op {
	case OpEq:
		return db.Where(clause.Eq{Column: col, Value: p.Args[0]})
	case OpLt:
		return db.Where(clause.Lt{Column: col, Value: p.Args[0]})
	case OpLte:
		return db.Where(clause.Lte{Column: col, Value: p.Args[0]})
	case OpGt:
		return db.Where(clause.Gt{Column: col, Value: p.Args[0]})
	case OpGte:
		return db.Where(clause.Gte{Column: col, Value: p.Args[0]})
	case OpIn:
		return db.Where(clause.IN{Column: col, Values: p.Args})
	case OpRange:
		return db.Where(clause.Gte{Column: col, Value: p.Args[0]}).
			Where(clause.Lte{Column: col, Value: p.Args[1]})
	}
	_ = db.AddError(fmt.Errorf("%w: %s", ErrUnsupportedOperator, p.Op))
	return db
}

// Scopes adapts predicates for gorm's Scopes.
func Scopes(preds []Predicate) []func(*gorm.DB) *gorm.DB {
	out := make([]func(*gorm.DB) *gorm.DB, 0, len(preds))
	for _, p := range preds {
		out = append(out, p.Scope)
	}
	return out
}

// Build coerces every filter in set and returns one predicate per field,
// ordered by field name. All predicates are meant to be combined with AND.
func Build(set Set, opts Options) ([]Predicate, error) {
	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	preds := make([]Predicate, 0, len(set))
	for _, field := range fields {
		p, err := buildOne(field, set[field], opts)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func buildOne(field string, f Filter, opts Options) (Predicate, error) {
	switch f := f.(type) {
	case Eq:
		v, err := Coerce(field, f.Value, opts)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Column: field, Op: OpEq, Args: []any{v}}, nil

	case Cmp:
		if !f.Op.comparison() {
			return Predicate{}, &Error{
				Field: field,
				Value: string(f.Op),
				Err:   ErrUnsupportedOperator,
				msg:   fmt.Sprintf("unsupported operator for %s: %s", field, f.Op),
			}
		}
		v, err := Coerce(field, f.Value, opts)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Column: field, Op: f.Op, Args: []any{v}}, nil

	case In:
		args := make([]any, 0, len(f.Values))
		for _, raw := range f.Values {
			v, err := Coerce(field, raw, opts)
			if err != nil {
				return Predicate{}, err
			}
			args = append(args, v)
		}
		return Predicate{Column: field, Op: OpIn, Args: args}, nil

	case Range:
		lo, err := Coerce(field, f.Lo, opts)
		if err != nil {
			return Predicate{}, err
		}
		hi, err := Coerce(field, f.Hi, opts)
		if err != nil {
			return Predicate{}, err
		}
		if compare(lo, hi) > 0 {
			return Predicate{}, &Error{
				Field: field,
				Value: f.Lo + "," + f.Hi,
				Err:   ErrInvalidRange,
				msg:   fmt.Sprintf("min value cannot be greater than max value in %s", field),
			}
		}
		return Predicate{Column: field, Op: OpRange, Args: []any{lo, hi}}, nil
	}

	op := Operator("")
	if f != nil {
		op = f.Operator()
	}
	return Predicate{}, &Error{
		Field: field,
		Err:   ErrUnsupportedOperator,
		msg:   fmt.Sprintf("unsupported operator for %s: %q", field, op),
	}
}
