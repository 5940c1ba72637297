package filter

import (
	"fmt"
	"net/url"
	"strings"
)

const rangeSuffix = "_range"

// boundAlias is a pair of legacy min/max parameters standing in for a range on Field.
type boundAlias struct {
	Field string
	Min   string
	Max   string
}

var boundAliases = []boundAlias{
	{Field: "price", Min: "min-price", Max: "max-price"},
	{Field: "quantity", Min: "min-qty", Max: "max-qty"},
}

func lookup(values url.Values, key string) (string, bool) {
	if _, ok := values[key]; !ok {
		return "", false
	}
	return values.Get(key), true
}

// Extract builds the per-field filter Set from query parameters. Parameters
// outside the allow-list are ignored. A field may be filtered by at most one
// syntax: F, F_range and the min/max aliases are mutually exclusive.
func Extract(values url.Values) (Set, error) {
	set := Set{}
	source := map[string]string{}

	for _, field := range Fields {
		rangeKey := field + rangeSuffix
		rawRange, hasRange := lookup(values, rangeKey)
		raw, hasPlain := lookup(values, field)

		switch {
		case hasRange && hasPlain:
			return nil, conflict(field, field, rangeKey)

		case hasRange:
			parts := strings.Split(rawRange, ",")
			if len(parts) != 2 {
				return nil, &Error{
					Field: field,
					Value: rawRange,
					Err:   ErrInvalidRangeFormat,
					msg:   fmt.Sprintf("%s must have two comma-separated values", rangeKey),
				}
			}
			set[field] = Range{Lo: strings.TrimSpace(parts[0]), Hi: strings.TrimSpace(parts[1])}
			source[field] = rangeKey

		case hasPlain && strings.Contains(raw, ","):
			set[field] = In{Values: splitList(raw)}
			source[field] = field

		case hasPlain:
			op, operand, err := ParseOperator(raw)
			if err != nil {
				fe := err.(*Error)
				fe.Field = field
				fe.msg = fmt.Sprintf("error parsing filter for %s: %s", field, fe.msg)
				return nil, fe
			}
			if op == OpEq {
				set[field] = Eq{Value: operand}
			} else {
				set[field] = Cmp{Op: op, Value: operand}
			}
			source[field] = field
		}
	}

	for _, a := range boundAliases {
		lo, hasMin := lookup(values, a.Min)
		hi, hasMax := lookup(values, a.Max)
		if !hasMin && !hasMax {
			continue
		}

		if src, ok := source[a.Field]; ok {
			var used []string
			if hasMin {
				used = append(used, a.Min)
			}
			if hasMax {
				used = append(used, a.Max)
			}
			return nil, conflict(a.Field, src, strings.Join(used, "/"))
		}

		switch {
		case hasMin && hasMax:
			set[a.Field] = Range{Lo: strings.TrimSpace(lo), Hi: strings.TrimSpace(hi)}
		case hasMax:
			set[a.Field] = Cmp{Op: OpLte, Value: strings.TrimSpace(hi)}
		default:
			set[a.Field] = Cmp{Op: OpGte, Value: strings.TrimSpace(lo)}
		}
	}

	return set, nil
}

func conflict(field, a, b string) *Error {
	return &Error{
		Field: field,
		Err:   ErrConflict,
		msg:   fmt.Sprintf("conflicting filters: %s cannot be combined with %s", a, b),
	}
}
