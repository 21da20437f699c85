package ocr

import "strings"

// totalKeywords is scanned in order and the first hit wins for a line, so longer
// phrases must precede the shorter terms they contain ("subtotal" before "total").
var totalKeywords = []string{
	// due / payable
	"balance due", "amount due", "total due", "due now", "now due", "balance payable",
	"total payable", "net payable", "amount payable", "payable amount", "amount to pay",
	"total to pay", "to be paid", "please pay", "pay this amount", "pay now",
	"net a payer", "zu zahlen", "total a pagar", "te betalen", "a pagar",
	// subtotal / net / final / gross
	"sub-total", "sub total", "subtotal", "net total", "net amount", "net value",
	"final total", "final amount", "gross total", "gross amount", "gross value",
	"zwischensumme", "sous-total", "nettobetrag",
	// hard totals
	"grand total", "invoice total", "invoice value", "total amount", "total value",
	"montant total", "montant ttc", "total ttc", "gesamtbetrag", "gesamtsumme",
	"rechnungsbetrag", "endbetrag", "totale fattura", "importe total", "valor total",
	"totaal", "summe", "totale",
	// payment / settlement
	"amount paid", "total paid", "paid amount", "amount tendered", "amount received",
	"card payment", "cash payment", "payment amount", "payment total", "settlement amount",
	"remittance amount", "charged to card", "card total", "bezahlt", "pagado",
	// short, generic terms last
	"invoice amount", "balance", "payable", "payment", "settlement", "remittance",
	"paid", "due", "importe", "montant", "betrag", "amount", "gross", "total",
}

// Keyword classes for the scoring bonuses, matched against normalized keywords.
var (
	hardTotalKeywords = []string{
		"total", "grand total", "total amount", "invoice total", "invoice value", "total value",
		"montant total", "montant ttc", "total ttc", "gesamtbetrag", "gesamtsumme",
		"rechnungsbetrag", "endbetrag", "totale fattura", "importe total", "valor total",
		"totaal", "summe", "totale",
	}
	dueKeywords = []string{
		"balance due", "amount due", "total due", "due now", "now due", "balance payable",
		"total payable", "net payable", "amount payable", "payable amount", "amount to pay",
		"total to pay", "to be paid", "please pay", "pay this amount", "pay now", "payable",
		"due", "net a payer", "zu zahlen", "total a pagar", "te betalen", "a pagar",
	}
	subtotalKeywords = []string{
		"sub-total", "sub total", "subtotal", "net total", "net amount", "net value",
		"final total", "final amount", "gross total", "gross amount", "gross value", "gross",
		"zwischensumme", "sous-total", "nettobetrag",
	}
	paymentKeywords = []string{
		"amount paid", "total paid", "paid amount", "amount tendered", "amount received",
		"card payment", "cash payment", "payment amount", "payment total", "settlement amount",
		"remittance amount", "charged to card", "card total", "payment", "settlement",
		"remittance", "paid", "bezahlt", "pagado",
	}
)

// vendorIndicators mark a line as a likely business name.
var vendorIndicators = []string{
	"ltd", "limited", "inc", "llc", "llp", "corp", "co.", "company", "gmbh", "plc",
	"pty", "s.a.", "sarl", "restaurant", "cafe", "café", "bar", "pharmacy", "store",
	"shop", "market", "supermarket", "hotel", "bakery", "services", "group",
}

// vendorStoplist holds header words that are never a vendor, compared case-insensitively.
var vendorStoplist = []string{"receipt", "invoice", "bill", "thank you", "thanks", "welcome"}

var (
	normalizedKeywords []string
	hardTotalSet       map[string]bool
	dueSet             map[string]bool
	subtotalSet        map[string]bool
	paymentSet         map[string]bool
)

func init() {
	seen := map[string]bool{}
	for _, k := range totalKeywords {
		n := Normalize(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		normalizedKeywords = append(normalizedKeywords, n)
	}
	hardTotalSet = normalizedSet(hardTotalKeywords)
	dueSet = normalizedSet(dueKeywords)
	subtotalSet = normalizedSet(subtotalKeywords)
	paymentSet = normalizedSet(paymentKeywords)
}

func normalizedSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[Normalize(w)] = true
	}
	return out
}

// matchKeyword returns the first normalized keyword contained in the normalized line.
func matchKeyword(normLine string) (string, bool) {
	if normLine == "" {
		return "", false
	}
	for _, k := range normalizedKeywords {
		if strings.Contains(normLine, k) {
			return k, true
		}
	}
	return "", false
}
