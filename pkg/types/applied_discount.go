package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AppliedDiscount records the volume discount applied to a cart line or
// order item at pricing time.
type AppliedDiscount struct {
	Label      string `json:"label"`
	MinQty     int    `json:"min_qty"`
	Percentage string `json:"percentage"`
	Amount     int64  `json:"amount"`
}

// Value serializes the discount object to JSON.
func (a *AppliedDiscount) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan decodes a JSON object into the discount struct.
func (a *AppliedDiscount) Scan(value interface{}) error {
	if value == nil {
		*a = AppliedDiscount{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, a)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
