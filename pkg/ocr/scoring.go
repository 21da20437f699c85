package ocr

// Default scoring weights. These are hand-tuned priors, not calibrated values;
// override them through Weights when a labelled receipt set says otherwise.
const (
	DefaultMaxAmount = 100000.0

	weightBase           = 1.0
	weightHardTotal      = 3.0
	weightDue            = 2.5
	weightSubtotal       = 2.0
	weightPayment        = 1.8
	weightSameLine       = 1.5
	weightCurrencySymbol = 1.0
	weightDelimited      = 0.3
	weightTwoDecimals    = 0.5
	weightBelowOne       = -1.0
	weightTypicalRange   = 0.5
	weightShortDigits    = -0.5

	typicalMin     = 10.0
	typicalMax     = 10000.0
	shortDigitsMax = 2

	fallbackBase        = 0.2
	fallbackTwoDecimals = 0.2
	fallbackTens        = 0.1
	fallbackHundreds    = 0.1
	fallbackSmall       = -0.1
	fallbackSmallBelow  = 5.0
)

// Weights is the additive score table used by ExtractAmount. Penalties are
// stored as negative values and simply added.
type Weights struct {
	MaxAmount float64 `yaml:"max_amount"`

	Base           float64 `yaml:"base"`
	HardTotal      float64 `yaml:"hard_total"`
	Due            float64 `yaml:"due"`
	Subtotal       float64 `yaml:"subtotal"`
	Payment        float64 `yaml:"payment"`
	SameLine       float64 `yaml:"same_line"`
	CurrencySymbol float64 `yaml:"currency_symbol"`
	Delimited      float64 `yaml:"delimited"`
	TwoDecimals    float64 `yaml:"two_decimals"`
	BelowOne       float64 `yaml:"below_one"`
	TypicalRange   float64 `yaml:"typical_range"`
	TypicalMin     float64 `yaml:"typical_min"`
	TypicalMax     float64 `yaml:"typical_max"`
	ShortDigits    float64 `yaml:"short_digits"`
	ShortDigitsMax int     `yaml:"short_digits_max"`

	FallbackBase        float64 `yaml:"fallback_base"`
	FallbackTwoDecimals float64 `yaml:"fallback_two_decimals"`
	FallbackTens        float64 `yaml:"fallback_tens"`
	FallbackHundreds    float64 `yaml:"fallback_hundreds"`
	FallbackSmall       float64 `yaml:"fallback_small"`
	FallbackSmallBelow  float64 `yaml:"fallback_small_below"`
}

// DefaultWeights returns the stock score table.
func DefaultWeights() Weights {
	return Weights{
		MaxAmount:           DefaultMaxAmount,
		Base:                weightBase,
		HardTotal:           weightHardTotal,
		Due:                 weightDue,
		Subtotal:            weightSubtotal,
		Payment:             weightPayment,
		SameLine:            weightSameLine,
		CurrencySymbol:      weightCurrencySymbol,
		Delimited:           weightDelimited,
		TwoDecimals:         weightTwoDecimals,
		BelowOne:            weightBelowOne,
		TypicalRange:        weightTypicalRange,
		TypicalMin:          typicalMin,
		TypicalMax:          typicalMax,
		ShortDigits:         weightShortDigits,
		ShortDigitsMax:      shortDigitsMax,
		FallbackBase:        fallbackBase,
		FallbackTwoDecimals: fallbackTwoDecimals,
		FallbackTens:        fallbackTens,
		FallbackHundreds:    fallbackHundreds,
		FallbackSmall:       fallbackSmall,
		FallbackSmallBelow:  fallbackSmallBelow,
	}
}

// amountMatch is one regex hit inside a keyword window, before scoring.
type amountMatch struct {
	raw       string // full regex match, symbols included
	num       string // numeric part
	amount    float64
	keyword   string // normalized
	offset    int    // window line offset from the keyword line
	delimited bool   // in parentheses or after ':' / '='
}

// scoreMatch accumulates the independent bonuses and penalties for a keyword-window match.
func scoreMatch(m amountMatch, w Weights) float64 {
	s := w.Base
	switch {
	case hardTotalSet[m.keyword]:
		s += w.HardTotal
	case dueSet[m.keyword]:
		s += w.Due
	case subtotalSet[m.keyword]:
		s += w.Subtotal
	case paymentSet[m.keyword]:
		s += w.Payment
	}
	if m.offset == 0 {
		s += w.SameLine
	}
	if hasCurrencySymbol(m.raw) {
		s += w.CurrencySymbol
	}
	if m.delimited {
		s += w.Delimited
	}
	if hasTwoDecimals(m.num) {
		s += w.TwoDecimals
	}
	if m.amount < 1 {
		s += w.BelowOne
	}
	if m.amount >= w.TypicalMin && m.amount <= w.TypicalMax {
		s += w.TypicalRange
	}
	if d := len(onlyDigits(m.num)); d >= 1 && d <= w.ShortDigitsMax {
		s += w.ShortDigits
	}
	return s
}

// scoreFallback rates an unlabelled number purely on format plausibility.
func scoreFallback(num string, amt float64, w Weights) float64 {
	s := w.FallbackBase
	if hasTwoDecimals(num) {
		s += w.FallbackTwoDecimals
	}
	if amt >= 10 {
		s += w.FallbackTens
	}
	if amt >= 100 {
		s += w.FallbackHundreds
	}
	if amt < w.FallbackSmallBelow {
		s += w.FallbackSmall
	}
	return s
}

// bestCandidate returns the highest-confidence candidate; the earliest one wins ties.
func bestCandidate(cands []AmountCandidate) (AmountCandidate, bool) {
	if len(cands) == 0 {
		return AmountCandidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, true
}

// bestFallback prefers confidence, then the larger amount, then the earliest match.
func bestFallback(cands []AmountCandidate) (AmountCandidate, bool) {
	if len(cands) == 0 {
		return AmountCandidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Confidence > best.Confidence || (c.Confidence == best.Confidence && c.Amount > best.Amount) {
			best = c
		}
	}
	return best, true
}
