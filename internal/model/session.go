package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxPresetPumps is the upper bound of a preset pump submission.
const MaxPresetPumps = 150

// ErrInvalidConfig marks a rejected session configuration.
var ErrInvalidConfig = errors.New("invalid session config")

// Subject is the participant metadata copied into every trial record.
type Subject struct {
	ID      string `yaml:"id" json:"id"`
	Age     string `yaml:"age" json:"age"`
	Sex     string `yaml:"sex" json:"sex"`
	Session string `yaml:"session" json:"session"`
}

// Thresholds are the points-variant prize levels.
type Thresholds struct {
	Small  int `yaml:"small" json:"small"`
	Medium int `yaml:"medium" json:"medium"`
	Large  int `yaml:"large" json:"large"`
	Bonus  int `yaml:"bonus" json:"bonus"`
}

// Validate requires non-negative, non-decreasing levels.
func (t Thresholds) Validate() error {
	if t.Small < 0 {
		return fmt.Errorf("prize threshold small must not be negative")
	}
	if t.Medium < t.Small || t.Large < t.Medium || t.Bonus < t.Large {
		return fmt.Errorf("prize thresholds must be non-decreasing: %d/%d/%d/%d", t.Small, t.Medium, t.Large, t.Bonus)
	}
	return nil
}

// SessionConfig is everything the controller needs to run one session.
type SessionConfig struct {
	Variant          Variant
	BlockCount       int
	BalloonsPerBlock int
	Blocks           []BlockConfig
	UnitPayout       int

	// Preset variant: how long the participant has to submit a count.
	InputTimeout time.Duration
	// Auto variant: delay between automatic pumps.
	InflationInterval time.Duration
	// Points variant only.
	Prizes Thresholds

	Subject Subject
	Seed    uint64
}

// TotalBalloons is block_count × balloons_per_block.
func (c SessionConfig) TotalBalloons() int {
	return c.BlockCount * c.BalloonsPerBlock
}

// Validate rejects configurations the controller cannot run.
func (c SessionConfig) Validate() error {
	switch c.Variant {
	case VariantManual, VariantPreset, VariantAuto, VariantPoints:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, c.Variant)
	}
	if c.BlockCount <= 0 {
		return fmt.Errorf("%w: num_blocks must be positive, got %d", ErrInvalidConfig, c.BlockCount)
	}
	if c.BalloonsPerBlock <= 0 {
		return fmt.Errorf("%w: balloons_per_block must be positive, got %d", ErrInvalidConfig, c.BalloonsPerBlock)
	}
	if len(c.Blocks) == 0 {
		return fmt.Errorf("%w: at least one block setting is required", ErrInvalidConfig)
	}
	for i, b := range c.Blocks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: block %d: %v", ErrInvalidConfig, i+1, err)
		}
	}
	if c.UnitPayout < 0 {
		return fmt.Errorf("%w: unit payout must not be negative", ErrInvalidConfig)
	}
	if c.Variant == VariantPreset && c.InputTimeout <= 0 {
		return fmt.Errorf("%w: input_timeout must be positive", ErrInvalidConfig)
	}
	if c.Variant == VariantAuto && c.InflationInterval <= 0 {
		return fmt.Errorf("%w: inflation_speed must be positive", ErrInvalidConfig)
	}
	if c.Variant == VariantPoints {
		if err := c.Prizes.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// SessionMeta identifies one run for the recorders.
type SessionMeta struct {
	ID        uuid.UUID
	Variant   Variant
	StartedAt time.Time
	Subject   Subject
}

// NewSessionMeta stamps a fresh session identity.
func NewSessionMeta(variant Variant, subject Subject) SessionMeta {
	return SessionMeta{
		ID:        uuid.New(),
		Variant:   variant,
		StartedAt: time.Now(),
		Subject:   subject,
	}
}
