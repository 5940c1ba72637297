package filter

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Largest value a decimal(10,2) price column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// Bounds is the whole-cart range query: inclusive min/max pairs on price,
// quantity, creation and update time. Unset bounds are permissive.
type Bounds struct {
	MinPrice, MaxPrice     decimal.Decimal
	MinQty, MaxQty         int64
	MinCreated, MaxCreated time.Time
	MinUpdated, MaxUpdated time.Time
}

func DefaultBounds() Bounds {
	return Bounds{
		MinPrice:   decimal.Zero,
		MaxPrice:   maxPrice,
		MinQty:     0,
		MaxQty:     math.MaxInt64,
		MinCreated: time.Unix(0, 0).UTC(),
		MaxCreated: time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
		MinUpdated: time.Unix(0, 0).UTC(),
		MaxUpdated: time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
	}
}

// Predicates returns all eight bounds as range predicates.
func (b Bounds) Predicates() []Predicate {
	return []Predicate{
		{Column: "price", Op: OpRange, Args: []any{b.MinPrice, b.MaxPrice}},
		{Column: "quantity", Op: OpRange, Args: []any{b.MinQty, b.MaxQty}},
		{Column: "created_at", Op: OpRange, Args: []any{b.MinCreated, b.MaxCreated}},
		{Column: "last_updated", Op: OpRange, Args: []any{b.MinUpdated, b.MaxUpdated}},
	}
}

const (
	RangePrice       = "range_price"
	RangeQty         = "range_qty"
	RangeCreatedAt   = "range_created_at"
	RangeLastUpdated = "range_last_updated"
)

var rangeParams = []struct {
	param string
	field string
}{
	{RangePrice, "price"},
	{RangeQty, "quantity"},
	{RangeCreatedAt, "created_at"},
	{RangeLastUpdated, "last_updated"},
}

// ExtractBounds reads the range_* parameters. ok is false when none of them
// is present, in which case the caller should skip the range query.
// Dates use opts.DateFormat only.
func ExtractBounds(values url.Values, opts Options) (b Bounds, ok bool, err error) {
	b = DefaultBounds()
	dateOpts := []string{opts.DateFormat}
	if opts.DateFormat == "" {
		dateOpts = []string{DefaultDateFormat}
	}

	for _, rp := range rangeParams {
		raw := values.Get(rp.param)
		if raw == "" {
			continue
		}
		ok = true

		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			return b, false, &Error{
				Field: rp.field,
				Value: raw,
				Err:   ErrInvalidRangeFormat,
				msg:   fmt.Sprintf("%s must have two comma-separated values", rp.param),
			}
		}

		lo, loErr := coerceBound(rp.field, strings.TrimSpace(parts[0]), dateOpts)
		hi, hiErr := coerceBound(rp.field, strings.TrimSpace(parts[1]), dateOpts)
		if loErr != nil || hiErr != nil {
			return b, false, &Error{
				Field: rp.field,
				Value: raw,
				Err:   ErrInvalidFilterValue,
				msg:   fmt.Sprintf("%s values are invalid or malformed", rp.param),
			}
		}
		if compare(lo, hi) > 0 {
			return b, false, &Error{
				Field: rp.field,
				Value: raw,
				Err:   ErrInvalidRange,
				msg:   fmt.Sprintf("min value cannot be greater than max value in %s", rp.param),
			}
		}

		switch rp.field {
		case "price":
			b.MinPrice, b.MaxPrice = lo.(decimal.Decimal), hi.(decimal.Decimal)
		case "quantity":
			b.MinQty, b.MaxQty = lo.(int64), hi.(int64)
		case "created_at":
			b.MinCreated, b.MaxCreated = lo.(time.Time), hi.(time.Time)
		case "last_updated":
			b.MinUpdated, b.MaxUpdated = lo.(time.Time), hi.(time.Time)
		}
	}
	return b, ok, nil
}

func coerceBound(field, raw string, dateLayouts []string) (any, error) {
	if field == "created_at" || field == "last_updated" {
		return parseTime(raw, dateLayouts)
	}
	return Coerce(field, raw, Options{})
}
