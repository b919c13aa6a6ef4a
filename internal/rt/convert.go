package rt

import (
	"fmt"
	"math"
	"strconv"

	"fortio.org/safecast"
)

// ConvContext carries the side channel for recoverable conversion
// warnings. A nil context drops warnings; conversions never fail hard.
type ConvContext struct {
	// OnWarning receives each recoverable conversion warning. May be nil.
	OnWarning func(msg string)
}

func (cc *ConvContext) warn(format string, args ...any) {
	if cc == nil || cc.OnWarning == nil {
		return
	}
	cc.OnWarning(fmt.Sprintf(format, args...))
}

// NumberKind classifies the outcome of a numeric-string parse.
type NumberKind uint8

const (
	// NotNumber means no numeric prefix was found.
	NotNumber NumberKind = iota
	// IsLong means the prefix parsed as an integer.
	IsLong
	// IsDouble means the prefix parsed as a float.
	IsDouble
)

// ParseNumberPrefix parses the longest leading numeric prefix of s:
// optional whitespace, optional sign, digits, optional fraction and
// exponent. It returns the classification, both numeric renditions and
// the number of bytes consumed. Consumed < len(s) means the string had
// a trailing non-numeric tail; consumed == 0 means no prefix at all.
func ParseNumberPrefix(s string) (kind NumberKind, l int64, d float64, consumed int) {
	i := 0
	for i < len(s) && isSpaceByte(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	intEnd := i
	isFloat := false
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > i+1 || intEnd > digitsStart {
			// "1.", ".5" and "1.5" are all numeric, a lone "." is not.
			i = j
			isFloat = true
		}
	}
	if i == digitsStart || (intEnd == digitsStart && !isFloat) {
		return NotNumber, 0, 0, 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > expStart {
			i = j
			isFloat = true
		}
	}
	text := s[start:i]
	if isFloat {
		d, _ = strconv.ParseFloat(text, 64)
		return IsDouble, doubleToLong(d, nil), d, i
	}
	l, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// Integer overflow promotes to double.
		d, _ = strconv.ParseFloat(text, 64)
		return IsDouble, doubleToLong(d, nil), d, i
	}
	return IsLong, l, float64(l), i
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// stringToLong converts with the leading-prefix rule. Non-numeric
// strings convert as zero with a warning.
func stringToLong(s string, cc *ConvContext) int64 {
	kind, l, _, consumed := ParseNumberPrefix(s)
	if kind == NotNumber {
		cc.warn("non-numeric string %q converted to 0", s)
		return 0
	}
	if consumed < len(s) {
		cc.warn("numeric string %q has a non-numeric tail", s)
	}
	return l
}

func stringToDouble(s string, cc *ConvContext) float64 {
	kind, _, d, consumed := ParseNumberPrefix(s)
	if kind == NotNumber {
		cc.warn("non-numeric string %q converted to 0", s)
		return 0
	}
	if consumed < len(s) {
		cc.warn("numeric string %q has a non-numeric tail", s)
	}
	return d
}

// doubleToLong truncates toward zero. Values outside the integer range
// and NaN convert as zero with a warning.
func doubleToLong(d float64, cc *ConvContext) int64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		cc.warn("float %v has no integer representation", d)
		return 0
	}
	l, err := safecast.Truncate[int64](d)
	if err != nil {
		cc.warn("float %v out of integer range", d)
		return 0
	}
	return l
}

// doubleToString renders without an exponent for integral magnitudes,
// matching the language's default float printing.
func doubleToString(d float64) string {
	if d == math.Trunc(d) && math.Abs(d) < 1e15 {
		return strconv.FormatFloat(d, 'f', -1, 64)
	}
	return strconv.FormatFloat(d, 'G', -1, 64)
}

// stringIsFalsy reports the boolean coercion of a string: false iff
// empty or exactly "0". "0.0" is true.
func stringIsFalsy(s string) bool {
	return s == "" || s == "0"
}
