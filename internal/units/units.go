package units

import (
	"errors"
	"fmt"
	"strings"
)

// Unit identifies how formula amounts are measured.
type Unit string

const (
	// Drops counts discrete drops dispensed from a pipette.
	Drops Unit = "drops"
	// Volume measures continuous volume in millilitres.
	Volume Unit = "volume"
)

// DefaultDropsPerVolumeUnit is the conventional drops-per-ml ratio.
const DefaultDropsPerVolumeUnit = 20.0

const (
	dropIncrement   = 1.0
	volumeIncrement = 0.05
)

// ErrInvalidConfiguration reports a conversion ratio that cannot be used.
var ErrInvalidConfiguration = errors.New("units: drops per volume unit must be positive")

// ParseUnit converts a persisted or user supplied value into a Unit. The legacy
// "ml" spelling is accepted for volume.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "drops", "drop":
		return Drops, nil
	case "volume", "ml":
		return Volume, nil
	default:
		return "", fmt.Errorf("units: unknown unit %q", value)
	}
}

// Canonical maps u onto a supported unit, reading the legacy "ml" spelling
// as volume. Unrecognised values are drops.
func (u Unit) Canonical() Unit {
	if parsed, err := ParseUnit(string(u)); err == nil {
		return parsed
	}
	return Drops
}

// UnmarshalText accepts every spelling ParseUnit does, so decoded records
// always carry "drops" or "volume".
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	return u == Drops || u == Volume
}

// Label returns the short display suffix for the unit.
func (u Unit) Label() string {
	if u == Volume {
		return "ml"
	}
	return "drops"
}

// Increment returns the smallest step an amount may take in the unit.
func Increment(u Unit) float64 {
	if u == Volume {
		return volumeIncrement
	}
	return dropIncrement
}

// Converter translates between drops and volume using a configurable ratio.
type Converter struct {
	DropsPerVolumeUnit float64
}

// NewConverter returns a Converter for ratio, validating it eagerly.
func NewConverter(ratio float64) (Converter, error) {
	c := Converter{DropsPerVolumeUnit: ratio}
	if err := c.Validate(); err != nil {
		return Converter{}, err
	}
	return c, nil
}

// Validate returns ErrInvalidConfiguration when the ratio is zero, negative or NaN.
func (c Converter) Validate() error {
	if !(c.DropsPerVolumeUnit > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidConfiguration, c.DropsPerVolumeUnit)
	}
	return nil
}

// ToVolume converts amount, expressed in unit, into volume units.
func (c Converter) ToVolume(amount float64, unit Unit) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if unit == Volume {
		return amount, nil
	}
	return amount / c.DropsPerVolumeUnit, nil
}

// FromVolume converts a volume into an amount expressed in unit.
func (c Converter) FromVolume(volume float64, unit Unit) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if unit == Volume {
		return volume, nil
	}
	return volume * c.DropsPerVolumeUnit, nil
}
