package ocr

import (
	"math"
	"strings"
)

// currencySymbols recognized on receipts. ISO codes are handled by the patterns.
const currencySymbols = "$€£¥₹₩"

// isPlausibleAmount rejects parse artifacts and values outside (0, ceiling).
// The ceiling guards against OCR misreads that merge digits into huge numbers.
func isPlausibleAmount(amt, ceiling float64) bool {
	if math.IsNaN(amt) || math.IsInf(amt, 0) {
		return false
	}
	return amt > 0 && amt < ceiling
}

func hasCurrencySymbol(raw string) bool {
	return strings.ContainsAny(raw, currencySymbols)
}
