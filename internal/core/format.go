package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Suppliers quoted in the estimate explanation, in display order.
var Suppliers = []string{"Lowe's", "Home Depot", "Ace Hardware", "Local Lumber Yard"}

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an amount as US dollars with thousands separators,
// e.g. "$58,520.00".
func FormatMoney(amount float64) string {
	if amount < 0 {
		return "-" + printer.Sprintf("$%.2f", -amount)
	}
	return printer.Sprintf("$%.2f", amount)
}

// Explanation is the pricing explanation shown under every estimate. The
// ZIP code is interpolated as entered.
func Explanation(zipCode string) string {
	return fmt.Sprintf("This estimate is based on average prices from major suppliers such as %s, and %s in ZIP code %s. "+
		"Prices were computed using publicly available regional pricing data and construction norms. "+
		"You can customize rates by uploading supplier CSVs in future versions.",
		strings.Join(Suppliers[:len(Suppliers)-1], ", "), Suppliers[len(Suppliers)-1], zipCode)
}
