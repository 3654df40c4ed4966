package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmptyValue    = errors.New("empty value")
	ErrInvalidDate   = errors.New("unrecognized date")
	ErrInvalidAmount = errors.New("unrecognized amount")
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reISODate    = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	reSlashDate  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	reDashDate   = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{2}|\d{4})$`)
	reDotDate    = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})$`)
	reOrdinal    = regexp.MustCompile(`(\d)(?i:st|nd|rd|th)\b`)
)

// namedDateLayouts are tried with time.Parse, which matches month names case-insensitively.
var namedDateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2-Jan-2006",
	"2 Jan. 2006",
	"Jan. 2, 2006",
}

// Text applies NFKC, collapses whitespace and trims. Empty input yields "".
func Text(s string) string {
	s = norm.NFKC.String(s)
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Snapshot returns the first n characters of s.
func Snapshot(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ParseDate reads s in one of the supported layouts, then in extra.
// Slash dates are read day first, dash dates month first; when that reading is
// impossible the other order is tried.
func ParseDate(s string, extra ...string) (time.Time, error) {
	s = Text(s)
	if s == "" {
		return time.Time{}, ErrEmptyValue
	}

	if m := reISODate.FindStringSubmatch(s); m != nil {
		if t, ok := civil(m[1], m[2], m[3]); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if m := reSlashDate.FindStringSubmatch(s); m != nil {
		year := expandYear(m[3])
		if t, ok := civil(year, m[2], m[1]); ok {
			return t, nil
		}
		if t, ok := civil(year, m[1], m[2]); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if m := reDashDate.FindStringSubmatch(s); m != nil {
		year := expandYear(m[3])
		if t, ok := civil(year, m[1], m[2]); ok {
			return t, nil
		}
		if t, ok := civil(year, m[2], m[1]); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if m := reDotDate.FindStringSubmatch(s); m != nil {
		year := expandYear(m[3])
		if t, ok := civil(year, m[2], m[1]); ok {
			return t, nil
		}
		if t, ok := civil(year, m[1], m[2]); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	named := reOrdinal.ReplaceAllString(s, "$1")
	for _, layout := range namedDateLayouts {
		if t, err := time.Parse(layout, named); err == nil {
			return t, nil
		}
	}
	for _, layout := range extra {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func expandYear(y string) string {
	if len(y) == 2 {
		return "20" + y
	}
	return y
}

// civil builds a UTC date and rejects values time.Date would roll over.
func civil(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// ParseAmount reads a monetary amount, ignoring currency symbols and codes.
// Both 1,234.56 and 1.234,56 are accepted; accounting parentheses and a
// leading or trailing minus mean negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = Text(s)
	if s == "" {
		return decimal.Zero, ErrEmptyValue
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
	}

	var b strings.Builder
	seenDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			seenDigit = true
		case r == '.' || r == ',':
			if seenDigit {
				b.WriteRune(r)
			}
		case r == '-' || r == '−':
			negative = true
		}
	}
	num := strings.TrimRight(b.String(), ".,")
	if !seenDigit || num == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	num = canonicalSeparators(num)
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// canonicalSeparators rewrites num so that '.' is the only decimal separator
// and no grouping separators remain.
func canonicalSeparators(num string) string {
	lastDot := strings.LastIndex(num, ".")
	lastComma := strings.LastIndex(num, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56
			num = strings.ReplaceAll(num, ".", "")
			return strings.Replace(num, ",", ".", 1)
		}
		return strings.ReplaceAll(num, ",", "")
	case lastComma >= 0:
		if strings.Count(num, ",") == 1 && len(num)-lastComma-1 != 3 {
			return strings.Replace(num, ",", ".", 1)
		}
		return strings.ReplaceAll(num, ",", "")
	case lastDot >= 0:
		if strings.Count(num, ".") > 1 {
			return strings.ReplaceAll(num, ".", "")
		}
	}
	return num
}
