package model

import "fmt"

// Color is a balloon color label.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRandom Color = "random"
)

// ConcreteColors are the colors a random block may resolve to.
var ConcreteColors = []Color{ColorBlue, ColorRed, ColorGreen, ColorYellow}

// Valid reports whether c is a known label, random included.
func (c Color) Valid() bool {
	switch c {
	case ColorBlue, ColorRed, ColorGreen, ColorYellow, ColorRandom:
		return true
	}
	return false
}

// BlockConfig holds the parameters of one block of balloons.
type BlockConfig struct {
	MaxPumpCount int   `yaml:"max_pop" json:"max_pop"`
	Color        Color `yaml:"balloon_color" json:"balloon_color"`
	UnitPayout   int   `yaml:"unit_payout,omitempty" json:"unit_payout,omitempty"` // 0 means session default
}

// Validate checks a single block definition.
func (b BlockConfig) Validate() error {
	if b.MaxPumpCount <= 0 {
		return fmt.Errorf("max_pop must be positive, got %d", b.MaxPumpCount)
	}
	if !b.Color.Valid() {
		return fmt.Errorf("unknown balloon_color %q", b.Color)
	}
	if b.UnitPayout < 0 {
		return fmt.Errorf("unit_payout must not be negative, got %d", b.UnitPayout)
	}
	return nil
}
