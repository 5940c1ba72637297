package filter

import "strings"

const marker = "~"

// ParseOperator splits "~op~value" into its operator and operand. A value
// without the leading marker is an equality operand and is returned as is.
func ParseOperator(s string) (Operator, string, error) {
	if !strings.HasPrefix(s, marker) {
		return OpEq, s, nil
	}

	parts := strings.Split(s, marker)
	if len(parts) < 3 {
		return "", "", &Error{Value: s, Err: ErrInvalidOperatorFormat, msg: "invalid operator format: " + s}
	}

	op := Operator(strings.ToLower(parts[1]))
	if !op.comparison() {
		return "", "", &Error{Value: s, Err: ErrUnsupportedOperator, msg: "unsupported operator: " + string(op)}
	}

	return op, strings.Join(parts[2:], marker), nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
