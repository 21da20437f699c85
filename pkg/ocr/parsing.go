package ocr

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount normalizes a matched substring into a decimal amount. Currency
// symbols, ISO codes, brackets and spaces are dropped; the separator layout
// decides which of '.' and ',' is the decimal point:
//
//	1,234.56 -> 1234.56   1.234,56 -> 1234.56   12,50 -> 12.5
//	1,234    -> 1234      1.234    -> 1234      1 234,56 -> 1234.56
func ParseAmount(found string) (float64, error) {
	s := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, found)
	s = strings.TrimRight(s, ".,")
	if s == "" || onlyDigits(s) == "" {
		return 0, fmt.Errorf("no digits extracted from %q", found)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s[:lastComma], ".", "") + "." + s[lastComma+1:]
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	amt, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return amt, nil
}

// hasTwoDecimals reports whether the numeric text ends in exactly two fraction digits.
func hasTwoDecimals(num string) bool {
	num = strings.TrimRight(strings.TrimSpace(num), ")")
	n := len(num)
	if n < 4 {
		return false
	}
	sep := num[n-3]
	if sep != '.' && sep != ',' {
		return false
	}
	return isDigit(num[n-2]) && isDigit(num[n-1]) && isDigit(num[n-4])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
