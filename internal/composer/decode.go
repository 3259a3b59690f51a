package composer

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UnmarshalJSON also reads pricePerMl, the key older backups use for the
// unit price. It may be a number or a numeric string.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	type plain Ingredient
	var aux struct {
		plain
		PricePerMl json.RawMessage `json:"pricePerMl"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Ingredient(aux.plain)
	if i.UnitPrice == 0 {
		i.UnitPrice = looseFloat(aux.PricePerMl)
	}
	return nil
}

// UnmarshalJSON also reads the ml and costPerMl keys of older backups.
func (t *CompositionTotals) UnmarshalJSON(data []byte) error {
	type plain CompositionTotals
	var aux struct {
		plain
		Ml        json.RawMessage `json:"ml"`
		CostPerMl json.RawMessage `json:"costPerMl"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = CompositionTotals(aux.plain)
	if t.Volume == 0 {
		t.Volume = looseFloat(aux.Ml)
	}
	if t.CostPerVolume == 0 {
		t.CostPerVolume = looseFloat(aux.CostPerMl)
	}
	return nil
}

// looseFloat reads a JSON number or numeric string. Anything else is 0.
func looseFloat(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
