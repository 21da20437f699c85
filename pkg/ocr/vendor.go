package ocr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// VendorCandidate is a header line scored as a possible business name.
type VendorCandidate struct {
	Text  string
	Score float64
}

const (
	vendorLookahead   = 8
	vendorMinLen      = 3
	vendorLongMin     = 8
	vendorLongMax     = 50
	vendorBase        = 1.0
	vendorIndicator   = 2.0
	vendorMixedCase   = 1.0
	vendorLength      = 1.0
	vendorLinePenalty = 0.2
)

// ExtractVendor guesses the merchant name from the first lines of a receipt.
// It returns "" when no header line looks like text.
func ExtractVendor(lines []string) string {
	n := len(lines)
	if n > vendorLookahead {
		n = vendorLookahead
	}
	var cands []VendorCandidate
	firstBasic := ""
	for i := 0; i < n; i++ {
		ln := strings.TrimSpace(lines[i])
		if !vendorBasic(ln) {
			continue
		}
		if firstBasic == "" {
			firstBasic = ln
		}
		if isStopword(ln) {
			continue
		}
		cands = append(cands, VendorCandidate{Text: ln, Score: scoreVendor(ln, i)})
	}
	if len(cands) == 0 {
		return firstBasic
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best.Text
}

// vendorBasic rejects lines that are too short or carry no letters at all.
func vendorBasic(ln string) bool {
	return utf8.RuneCountInString(ln) >= vendorMinLen && hasLetter(ln)
}

func isStopword(ln string) bool {
	for _, s := range vendorStoplist {
		if strings.EqualFold(ln, s) {
			return true
		}
	}
	return false
}

func scoreVendor(ln string, idx int) float64 {
	s := vendorBase
	low := strings.ToLower(ln)
	for _, ind := range vendorIndicators {
		if strings.Contains(low, ind) {
			s += vendorIndicator
			break
		}
	}
	var upper, lower bool
	for _, r := range ln {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
	}
	if upper && lower {
		s += vendorMixedCase
	}
	if l := utf8.RuneCountInString(ln); l > vendorLongMin && l <= vendorLongMax {
		s += vendorLength
	}
	return s - vendorLinePenalty*float64(idx)
}
