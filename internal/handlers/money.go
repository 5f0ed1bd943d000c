package handlers

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money amount rendered as a JSON string with exactly two decimal places ("950.00").
// Amounts never pass through float64 on the way out.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return json.Marshal(decimal.Decimal(m).StringFixed(2))
}

func (m *money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = money(d)
	return nil
}

func moneyPtr(d decimal.Decimal) *money {
	m := money(d)
	return &m
}
