package ocr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IsoDate is the layout of ExtractionResult.Date.
const IsoDate = "2006-01-02"

const minDateYear = 2000

var (
	reDateYMD   = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	reDateDMY   = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`)
	reDateDMYY  = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{2})\b`)
	reDateMonth = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ExtractDate returns the first valid date after 2000 found in text, as YYYY-MM-DD.
// With no usable date it returns now's date; the caller must treat that as unconfirmed.
func ExtractDate(text string, now time.Time) string {
	if d, ok := findDate(text); ok {
		return d.Format(IsoDate)
	}
	return now.Format(IsoDate)
}

func findDate(text string) (time.Time, bool) {
	for _, m := range reDateYMD.FindAllStringSubmatch(text, -1) {
		if d, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d, true
		}
	}
	for _, m := range reDateDMY.FindAllStringSubmatch(text, -1) {
		if d, ok := dayFirst(atoi(m[3]), atoi(m[2]), atoi(m[1])); ok {
			return d, true
		}
	}
	for _, m := range reDateDMYY.FindAllStringSubmatch(text, -1) {
		if d, ok := dayFirst(2000+atoi(m[3]), atoi(m[2]), atoi(m[1])); ok {
			return d, true
		}
	}
	for _, m := range reDateMonth.FindAllStringSubmatch(text, -1) {
		mon := monthAbbrev[strings.ToLower(m[1])]
		if d, ok := makeDate(atoi(m[3]), int(mon), atoi(m[2])); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// dayFirst reads D/M order and only swaps to M/D when the month slot cannot be a month.
func dayFirst(year, month, day int) (time.Time, bool) {
	if d, ok := makeDate(year, month, day); ok {
		return d, true
	}
	if month > 12 && day <= 12 {
		return makeDate(year, day, month)
	}
	return time.Time{}, false
}

// makeDate rejects impossible calendar dates instead of letting time.Date normalize them.
func makeDate(year, month, day int) (time.Time, bool) {
	if year <= minDateYear || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
