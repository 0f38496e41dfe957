// Package money formats Rupiah amounts and computes the artist's cut.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyPrefix is prepended to every formatted amount.
const CurrencyPrefix = "Rp"

var printer = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount with Indonesian thousands grouping and no
// decimals, e.g. 100000 -> "Rp100.000".
func FormatRupiah(amount int64) string {
	return CurrencyPrefix + printer.Sprintf("%d", amount)
}

// ArtistPrice returns price * percent / 100 rounded half to even.
func ArtistPrice(price int64, percent int) int64 {
	share := decimal.NewFromInt(price).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		RoundBank(0)
	return share.IntPart()
}
