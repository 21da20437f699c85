package ocr

import (
	"fmt"
	"regexp"
	"sort"
)

// AmountCandidate is a scored monetary value found in the recognized text.
// Keyword is the normalized label that opened the search window, or "fallback".
type AmountCandidate struct {
	Amount     float64
	Confidence float64
	Keyword    string
	LineIndex  int
	Raw        string
}

// FallbackKeyword marks candidates produced without any label nearby.
const FallbackKeyword = "fallback"

// windowSize is the number of lines searched from a keyword hit, the hit included.
const windowSize = 4

const (
	usNum     = `(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`
	euNum     = `(?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d{1,2})?`
	spaceNum  = `\d{1,3}(?: \d{3})+(?:[.,]\d{1,2})?`
	indianNum = `\d{1,2}(?:,\d{2})*,\d{3}(?:\.\d{1,2})?`
	isoCode   = `(?:USD|EUR|GBP|JPY|KRW|INR|CNY|CAD|AUD|NZD|CHF|SEK|NOK|DKK|PLN|CZK|HUF|SGD|HKD|ZAR|MXN|BRL|AED|SAR|IDR|MYR|THB|PHP|TRY)`
)

type amountPattern struct {
	re        *regexp.Regexp
	delimited bool
}

// amountPatterns run in order against every window line. Group 1 is always the number.
var amountPatterns = []amountPattern{
	{re: regexp.MustCompile(`\$\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`(` + usNum + `)\s*\$`)},
	{re: regexp.MustCompile(`€\s*(` + euNum + `)`)},
	{re: regexp.MustCompile(`€\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`(` + euNum + `)\s*€`)},
	{re: regexp.MustCompile(`£\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`(` + usNum + `)\s*£`)},
	{re: regexp.MustCompile(`[¥￥]\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`₹\s*(` + indianNum + `)`)},
	{re: regexp.MustCompile(`₹\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`(?i)\brs\.?\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`₩\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`\b` + isoCode + `\s*(` + usNum + `)`)},
	{re: regexp.MustCompile(`(?:[$€£¥₹₩]|\b` + isoCode + `)\s*(` + spaceNum + `)`)},
	{re: regexp.MustCompile(`(` + spaceNum + `)\s*(?:[$€£]|` + isoCode + `\b)`)},
	{re: regexp.MustCompile(`(` + usNum + `)\s*` + isoCode + `\b`)},
	{re: regexp.MustCompile(`\((` + usNum + `)\)`), delimited: true},
	{re: regexp.MustCompile(`[:=]\s*[$€£¥₹₩]?\s*(` + usNum + `)`), delimited: true},
	{re: regexp.MustCompile(`[:=]\s*(` + euNum + `)`), delimited: true},
	{re: regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+\.\d{1,2})\b`)},
	{re: regexp.MustCompile(`\b(\d{1,3}(?:\.\d{3})+,\d{1,2})\b`)},
	{re: regexp.MustCompile(`\b(\d+[.,]\d{2})\b`)},
	{re: regexp.MustCompile(`\b(\d+\.\d)\b`)},
	{re: regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+)\b`)},
	{re: regexp.MustCompile(`\b(\d{1,3}(?:\.\d{3})+)\b`)},
	{re: regexp.MustCompile(`\b(\d{2,6})\b`)},
}

// fallbackPatterns are the reduced set used when no keyword produced a candidate.
var fallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?)\b`),
	regexp.MustCompile(`\b(\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?)\b`),
	regexp.MustCompile(`\b(\d+[.,]\d{1,2})\b`),
}

// ExtractAmount picks the most plausible document total from recognized lines
// using the default weights. The result is a heuristic guess for the user to
// confirm; ok is false when nothing plausible was found.
func ExtractAmount(lines []string) (AmountCandidate, bool) {
	return ExtractAmountWeighted(lines, DefaultWeights())
}

// ExtractAmountWeighted is ExtractAmount with an explicit score table.
func ExtractAmountWeighted(lines []string, w Weights) (AmountCandidate, bool) {
	if c, ok := bestCandidate(keywordCandidates(lines, w)); ok {
		return c, true
	}
	return bestFallback(fallbackCandidates(lines, w))
}

// AmountCandidates lists every scored candidate ExtractAmountWeighted chooses
// from, best first. Keyword candidates hide the fallback set entirely.
func AmountCandidates(lines []string, w Weights) []AmountCandidate {
	cands := keywordCandidates(lines, w)
	fallback := len(cands) == 0
	if fallback {
		cands = fallbackCandidates(lines, w)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return fallback && cands[i].Amount > cands[j].Amount
	})
	return cands
}

// FormatAmount renders an amount the way the expense form expects it.
func FormatAmount(amt float64) string {
	return fmt.Sprintf("%.2f", amt)
}

// keywordCandidates searches a window after every labelled line with the full
// pattern battery. Window text is the original line, not the normalized one,
// since separators and symbols carry meaning there.
func keywordCandidates(lines []string, w Weights) []AmountCandidate {
	norm := make([]string, len(lines))
	for i, ln := range lines {
		norm[i] = Normalize(ln)
	}
	var out []AmountCandidate
	for i := range lines {
		kw, ok := matchKeyword(norm[i])
		if !ok {
			continue
		}
		for off := 0; off < windowSize; off++ {
			idx := i + off
			if idx >= len(lines) {
				break
			}
			for _, p := range amountPatterns {
				for _, m := range findNumbers(p.re, lines[idx]) {
					amt, err := ParseAmount(m.num)
					if err != nil || !isPlausibleAmount(amt, w.MaxAmount) {
						continue
					}
					am := amountMatch{raw: m.raw, num: m.num, amount: amt, keyword: kw, offset: off, delimited: p.delimited}
					out = append(out, AmountCandidate{
						Amount:     amt,
						Confidence: scoreMatch(am, w),
						Keyword:    kw,
						LineIndex:  idx,
						Raw:        m.raw,
					})
				}
			}
		}
	}
	return out
}

func fallbackCandidates(lines []string, w Weights) []AmountCandidate {
	var out []AmountCandidate
	for i, ln := range lines {
		for _, re := range fallbackPatterns {
			for _, m := range findNumbers(re, ln) {
				amt, err := ParseAmount(m.num)
				if err != nil || !isPlausibleAmount(amt, w.MaxAmount) {
					continue
				}
				out = append(out, AmountCandidate{
					Amount:     amt,
					Confidence: scoreFallback(m.num, amt, w),
					Keyword:    FallbackKeyword,
					LineIndex:  i,
					Raw:        m.raw,
				})
			}
		}
	}
	return out
}

type numberMatch struct {
	raw, num string
}

// findNumbers returns the matches of re whose number (group 1) stands on its
// own. A hit that continues into more digits across a separator, like the "50"
// of "0.50" or the "456.78" of "123,456.78", is a fragment and is skipped.
func findNumbers(re *regexp.Regexp, line string) []numberMatch {
	var out []numberMatch
	for _, ix := range re.FindAllStringSubmatchIndex(line, -1) {
		start, end := ix[2], ix[3]
		if start < 0 || embeddedNumber(line, start, end) {
			continue
		}
		out = append(out, numberMatch{raw: line[ix[0]:ix[1]], num: line[start:end]})
	}
	return out
}

func embeddedNumber(line string, start, end int) bool {
	if start > 0 {
		prev := line[start-1]
		if isDigit(prev) || (isSeparator(prev) && start > 1 && isDigit(line[start-2])) {
			return true
		}
	}
	if end < len(line) {
		next := line[end]
		if isDigit(next) || (isSeparator(next) && end+1 < len(line) && isDigit(line[end+1])) {
			return true
		}
	}
	return false
}

func isSeparator(b byte) bool { return b == '.' || b == ',' }
