package matrix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind selects one of the two independent strength dimensions.
type ValueKind string

const (
	Interaction ValueKind = "interaction"
	Information ValueKind = "information"
)

// Kinds lists every value kind in a stable order.
var Kinds = []ValueKind{Interaction, Information}

func (k ValueKind) Valid() bool {
	return k == Interaction || k == Information
}

func ParseValueKind(raw string) (ValueKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "interaction", "interactions":
		return Interaction, nil
	case "information", "information_flow", "information-flow", "informationflow":
		return Information, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// Value is an edge strength or module default. The zero Value is the empty
// sentinel: an input the user has cleared and not refilled yet.
type Value struct {
	n   float64
	set bool
}

// Empty is the cleared-input sentinel.
var Empty = Value{}

func Num(f float64) Value { return Value{n: f, set: true} }

func (v Value) IsEmpty() bool { return !v.set }

func (v Value) Float() (float64, bool) { return v.n, v.set }

// Equal is exact: no tolerance, and the empty sentinel only equals itself.
func (v Value) Equal(o Value) bool {
	if !v.set || !o.set {
		return v.set == o.set
	}
	return v.n == o.n
}

func (v Value) String() string {
	if !v.set {
		return "<empty>"
	}
	return strconv.FormatFloat(v.n, 'g', -1, 64)
}

// ParseValue accepts a decimal number or a blank string (empty sentinel).
func ParseValue(raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Empty, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Empty, fmt.Errorf("%w: %q is not numeric", ErrInvalidValue, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Empty, fmt.Errorf("%w: %q is not finite", ErrInvalidValue, raw)
	}
	return Num(f), nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return json.Marshal(v.n)
}

// UnmarshalJSON takes null, "" (cleared input), a number, or a numeric string.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Empty
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseValue(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	parsed, err := ParseValue(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func uniform(values []Value) (Value, bool) {
	if len(values) == 0 {
		return Empty, false
	}
	first := values[0]
	for _, v := range values[1:] {
		if !v.Equal(first) {
			return Empty, false
		}
	}
	return first, true
}
