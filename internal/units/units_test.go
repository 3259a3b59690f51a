package units

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseUnit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		value   string
		want    Unit
		wantErr bool
	}{
		{"drops", "drops", Drops, false},
		{"blank defaults to drops", "  ", Drops, false},
		{"volume", "volume", Volume, false},
		{"legacy ml", "ML", Volume, false},
		{"unknown", "litres", "", true},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseUnit(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUnit(%q) error = %v, wantErr %t", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseUnit(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	cases := map[Unit]Unit{
		Drops:    Drops,
		Volume:   Volume,
		"ml":     Volume,
		" Ml ":   Volume,
		"":       Drops,
		"litres": Drops,
	}
	for in, want := range cases {
		if got := in.Canonical(); got != want {
			t.Fatalf("Unit(%q).Canonical() = %q, want %q", in, got, want)
		}
	}
}

func TestUnitDecodesLegacySpelling(t *testing.T) {
	t.Parallel()

	var record struct {
		Mode Unit `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"ml"}`), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.Mode != Volume {
		t.Fatalf("expected ml to decode as volume, got %q", record.Mode)
	}
	if err := json.Unmarshal([]byte(`{"mode":"litres"}`), &record); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}

func TestConverterRoundTrip(t *testing.T) {
	t.Parallel()

	c := Converter{DropsPerVolumeUnit: 20}
	volume, err := c.ToVolume(15, Drops)
	if err != nil {
		t.Fatalf("ToVolume error = %v", err)
	}
	if volume != 0.75 {
		t.Fatalf("ToVolume(15 drops) = %v, want 0.75", volume)
	}

	drops, err := c.FromVolume(volume, Drops)
	if err != nil {
		t.Fatalf("FromVolume error = %v", err)
	}
	if drops != 15 {
		t.Fatalf("FromVolume(0.75) = %v, want 15", drops)
	}

	same, err := c.ToVolume(2.5, Volume)
	if err != nil || same != 2.5 {
		t.Fatalf("ToVolume(2.5 volume) = %v, %v", same, err)
	}
}

func TestConverterRejectsInvalidRatio(t *testing.T) {
	t.Parallel()

	for _, ratio := range []float64{0, -5, math.NaN()} {
		c := Converter{DropsPerVolumeUnit: ratio}
		if _, err := c.ToVolume(10, Drops); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("ToVolume with ratio %v: error = %v, want ErrInvalidConfiguration", ratio, err)
		}
		if _, err := c.FromVolume(1, Volume); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("FromVolume with ratio %v: error = %v, want ErrInvalidConfiguration", ratio, err)
		}
		if _, err := NewConverter(ratio); err == nil {
			t.Fatalf("NewConverter(%v) expected error", ratio)
		}
	}
}

func TestIncrement(t *testing.T) {
	t.Parallel()

	if got := Increment(Drops); got != 1 {
		t.Fatalf("Increment(Drops) = %v, want 1", got)
	}
	if got := Increment(Volume); got != 0.05 {
		t.Fatalf("Increment(Volume) = %v, want 0.05", got)
	}
}
