package recipe

import (
	"errors"
	"fmt"
	"math"

	"organ/internal/composer"
	"organ/internal/units"
)

// ErrInvalidTarget is returned when a composition cannot be scaled to the
// requested volume.
var ErrInvalidTarget = errors.New("recipe: invalid target volume")

// ScaledIngredient is one line of a production batch.
type ScaledIngredient struct {
	IngredientID  string  `json:"ingredientId"`
	Name          string  `json:"name"`
	OriginalDrops float64 `json:"originalDrops"`
	ScaledDrops   int     `json:"scaledDrops"`
	ScaledVolume  float64 `json:"scaledVolume"`
	Cost          float64 `json:"cost"`
}

// Scaled is a composition resized to a target volume.
type Scaled struct {
	Name         string             `json:"name"`
	TargetVolume float64            `json:"targetVolume"`
	ScaleFactor  float64            `json:"scaleFactor"`
	Ingredients  []ScaledIngredient `json:"ingredients"`
	TotalCost    float64            `json:"totalCost"`
}

// Scale resizes c so its total volume equals target.
func Scale(c composer.Composition, target float64, conv units.Converter) (Scaled, error) {
	if err := conv.Validate(); err != nil {
		return Scaled{}, err
	}
	if math.IsNaN(target) || target <= 0 {
		return Scaled{}, fmt.Errorf("%w: %v", ErrInvalidTarget, target)
	}
	if c.Totals.Volume <= 0 {
		return Scaled{}, fmt.Errorf("%w: composition has no volume", ErrInvalidTarget)
	}

	mode := c.Mode.Canonical()
	factor := target / c.Totals.Volume
	out := Scaled{
		Name:         fmt.Sprintf("%s (Scaled to %gml)", c.Name, target),
		TargetVolume: target,
		ScaleFactor:  factor,
		Ingredients:  make([]ScaledIngredient, 0, len(c.Ingredients)),
		TotalCost:    c.Totals.Cost * factor,
	}
	for _, ing := range c.Ingredients {
		volume, err := conv.ToVolume(ing.Amount, mode)
		if err != nil {
			return Scaled{}, err
		}
		drops, err := conv.FromVolume(volume, units.Drops)
		if err != nil {
			return Scaled{}, err
		}
		out.Ingredients = append(out.Ingredients, ScaledIngredient{
			IngredientID:  ing.IngredientID,
			Name:          ing.IngredientName,
			OriginalDrops: drops,
			ScaledDrops:   int(math.Round(drops * factor)),
			ScaledVolume:  volume * factor,
			Cost:          ing.Cost * factor,
		})
	}
	return out, nil
}
