package ledger

import (
	"github.com/doryinkbali/kasir/internal/money"
	"github.com/doryinkbali/kasir/internal/types"
)

// DateFormat is how dates are written to the ledger and the receipt.
const DateFormat = "02/01/2006"

// FormatRow converts a validated transaction into its six display fields.
func FormatRow(tx types.Transaction) types.Row {
	return types.Row{
		CustomerName:  tx.CustomerName,
		Date:          tx.Date.Format(DateFormat),
		ServiceType:   tx.ServiceType.Label(),
		PaymentMethod: tx.PaymentMethod.Label(),
		Price:         money.FormatRupiah(tx.Price),
		ArtistPrice:   money.FormatRupiah(tx.ArtistPrice),
	}
}
