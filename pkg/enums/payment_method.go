package enums

import "fmt"

// PaymentMethod identifies how an order is (or will be) paid.
type PaymentMethod string

const (
	PaymentMethodOnline       PaymentMethod = "online"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCardTerminal PaymentMethod = "card_terminal"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodOnline,
	PaymentMethodCash,
	PaymentMethodBankTransfer,
	PaymentMethodCardTerminal,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsManual reports whether the method is confirmed by an operator rather than
// by the payment provider (cash, bank transfer, card terminal).
func (p PaymentMethod) IsManual() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCardTerminal:
		return true
	default:
		return false
	}
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
