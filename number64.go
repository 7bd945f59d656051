package cosmosjson

import (
	"errors"
	"math"
	"strconv"
)

// Number64 holds either an exact 64-bit integer or a float64.  A value
// written as an integer always reads back as an integer.
type Number64 struct {
	i     int64
	f     float64
	isInt bool
}

// IntNumber returns an integer-tagged Number64.
func IntNumber(i int64) Number64 {
	return Number64{i: i, isInt: true}
}

// FloatNumber returns a float-tagged Number64.
func FloatNumber(f float64) Number64 {
	return Number64{f: f}
}

// IsInteger reports whether n holds an exact integer.
func (n Number64) IsInteger() bool { return n.isInt }

// Int64 returns n as an integer.  Floats are truncated toward zero and
// saturate at the int64 limits.
func (n Number64) Int64() int64 {
	if n.isInt {
		return n.i
	}
	switch {
	case math.IsNaN(n.f):
		return 0
	case n.f >= math.MaxInt64:
		return math.MaxInt64
	case n.f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(n.f)
}

// Float64 returns n as a float64, which may round large integers.
func (n Number64) Float64() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

// Equal reports numeric equality.  An integer and a float are equal when
// they denote the same value.
func (n Number64) Equal(o Number64) bool {
	if n.isInt && o.isInt {
		return n.i == o.i
	}
	if n.isInt != o.isInt {
		// Compare through float only when the float holds an exact integer
		// in range, so large integers don't compare equal after rounding.
		i, f := n.i, o.f
		if !n.isInt {
			i, f = o.i, n.f
		}
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return false
		}
		return int64(f) == i
	}
	return n.f == o.f
}

func (n Number64) String() string {
	if n.isInt {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}

var errNumberSyntax = errors.New("invalid number literal")

// ParseNumber64 parses a JSON number literal.  Literals without a fraction or
// exponent that fit in an int64 are integers; everything else is a float.
func ParseNumber64(b []byte) (Number64, error) {
	isFloat, ok := scanNumber(b)
	if !ok {
		return Number64{}, errNumberSyntax
	}
	if !isFloat {
		i, err := strconv.ParseInt(string(b), 10, 64)
		if err == nil {
			return IntNumber(i), nil
		}
		// Out of int64 range falls through to float.
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return Number64{}, err
	}
	return FloatNumber(f), nil
}

// scanNumber validates JSON number grammar and reports whether the literal
// has a fraction or exponent.
func scanNumber(b []byte) (isFloat bool, ok bool) {
	i := 0
	if i < len(b) && b[i] == '-' {
		i++
	}
	if i >= len(b) {
		return false, false
	}
	switch {
	case b[i] == '0':
		i++
	case b[i] >= '1' && b[i] <= '9':
		for i < len(b) && isDigit(b[i]) {
			i++
		}
	default:
		return false, false
	}
	if i < len(b) && b[i] == '.' {
		isFloat = true
		i++
		start := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		if i == start {
			return false, false
		}
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		isFloat = true
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		start := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		if i == start {
			return false, false
		}
	}
	return isFloat, i == len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// appendNumber64 renders n as JSON text.  Integral floats get a trailing ".0"
// so that they read back float-tagged.
func appendNumber64(out []byte, n Number64) []byte {
	if n.isInt {
		return strconv.AppendInt(out, n.i, 10)
	}
	start := len(out)
	out = strconv.AppendFloat(out, n.f, 'g', -1, 64)
	for _, c := range out[start:] {
		if c == '.' || c == 'e' || c == 'E' {
			return out
		}
	}
	return append(out, '.', '0')
}
