package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultDateFormat = "2006-01-02"

// Options tunes value coercion.
type Options struct {
	// DateFormat is accepted for date fields in addition to ISO-8601.
	DateFormat string
}

func (o Options) dateLayouts() []string {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
	}
	df := o.DateFormat
	if df == "" {
		df = DefaultDateFormat
	}
	return append(layouts, df)
}

func parseTime(raw string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", raw)
}

// Coerce converts a raw filter operand into the Go type stored for field.
func Coerce(field, raw string, opts Options) (any, error) {
	var (
		v   any
		err error
	)
	switch field {
	case "price":
		v, err = decimal.NewFromString(strings.TrimSpace(raw))
	case "quantity", "owner_id", "item_id":
		v, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case "created_at", "last_updated":
		v, err = parseTime(strings.TrimSpace(raw), opts.dateLayouts())
	case "description":
		v = raw
	default:
		return nil, fieldError(field, raw, ErrUnknownField)
	}
	if err != nil {
		return nil, &Error{
			Field: field,
			Value: raw,
			Err:   ErrInvalidFilterValue,
			msg:   fmt.Sprintf("invalid value for %s: %q", field, raw),
		}
	}
	return v, nil
}

// compare orders two values produced by Coerce for the same field.
func compare(a, b any) int {
	switch x := a.(type) {
	case decimal.Decimal:
		return x.Cmp(b.(decimal.Decimal))
	case int64:
		y := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case time.Time:
		return x.Compare(b.(time.Time))
	case string:
		return strings.Compare(x, b.(string))
	}
	return 0
}
