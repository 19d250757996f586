package models

import (
	"github.com/shopspring/decimal"
)

// Money is an amount stored in trip blobs. Blank or malformed values decode
// as zero so one bad field cannot make a whole trip unreadable.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		d = decimal.Zero
	}
	m.Decimal = d
	return nil
}
