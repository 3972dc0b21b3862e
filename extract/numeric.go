package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseIntOrZero parses the leading base-10 integer of s, ignoring leading
// whitespace and any trailing text. Text without a numeric prefix, or a
// value outside the int64 range, yields 0.
func ParseIntOrZero(s string) int64 {
	m := intPrefix.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseFloatOrZero parses the leading decimal number of s with the same
// leniency as ParseIntOrZero. Non-finite results yield 0.
func ParseFloatOrZero(s string) float64 {
	m := floatPrefix.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}
