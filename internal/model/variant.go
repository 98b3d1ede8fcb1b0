package model

import "fmt"

// Variant selects how pumps are driven within a session.
type Variant string

const (
	VariantManual Variant = "manual"
	VariantPreset Variant = "preset"
	VariantAuto   Variant = "auto"
	VariantPoints Variant = "points"
)

// Variants lists every supported variant in display order.
var Variants = []Variant{VariantManual, VariantPreset, VariantAuto, VariantPoints}

// ParseVariant maps a variant name to its tag. The legacy names
// ("standard", "bart_y") are accepted as aliases.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "manual", "standard":
		return VariantManual, nil
	case "preset":
		return VariantPreset, nil
	case "auto":
		return VariantAuto, nil
	case "points", "bart_y":
		return VariantPoints, nil
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// ManualPumping reports whether the participant drives each pump directly.
func (v Variant) ManualPumping() bool {
	return v == VariantManual || v == VariantPoints
}

// Unit is the display unit of banked amounts.
func (v Variant) Unit() string {
	if v == VariantPoints {
		return "points"
	}
	return "cents"
}
