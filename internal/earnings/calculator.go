package earnings

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/fotoclick/backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// LineSplit is the money breakdown for one settled order item.
// ItemTotal = Commission + Earning always holds exactly: the commission
// is rounded first and the earning is the remainder.
type LineSplit struct {
	ItemTotal            decimal.Decimal
	Commission           decimal.Decimal
	Earning              decimal.Decimal
	PhotoFraction        decimal.Decimal
	CommissionPercentage decimal.Decimal
}

// ComputeLine splits one order item between the platform and the
// photographer. PhotoFraction is the quantity-weighted share of the sale
// the photographer keeps, carried at four decimal places.
func ComputeLine(unitPrice decimal.Decimal, quantity int, commissionPct decimal.Decimal) (LineSplit, error) {
	if unitPrice.IsNegative() {
		return LineSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if quantity <= 0 {
		return LineSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if commissionPct.IsNegative() || commissionPct.GreaterThan(oneHundred) {
		return LineSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "commission percentage must be between 0 and 100")
	}

	qty := decimal.NewFromInt(int64(quantity))
	itemTotal := unitPrice.Mul(qty).Round(2)
	commission := itemTotal.Mul(commissionPct).Div(oneHundred).Round(2)
	earning := itemTotal.Sub(commission)
	photoFraction := decimal.NewFromInt(1).
		Sub(commissionPct.Div(oneHundred)).
		Mul(qty).
		Round(4)

	return LineSplit{
		ItemTotal:            itemTotal,
		Commission:           commission,
		Earning:              earning,
		PhotoFraction:        photoFraction,
		CommissionPercentage: commissionPct,
	}, nil
}
