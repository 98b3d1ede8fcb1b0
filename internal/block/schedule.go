// Package block maps balloon positions onto the configured block structure.
package block

import "BARTHub/internal/model"

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Params are the block parameters snapshotted when a block is entered.
type Params struct {
	Index        int
	MaxPumpCount int
	Color        model.Color
	UnitPayout   int
}

// Schedule resolves balloon indices to blocks and block settings.
type Schedule struct {
	blockCount       int
	balloonsPerBlock int
	blocks           []model.BlockConfig
	defaultPayout    int
}

// NewSchedule builds a schedule from a validated session config.
func NewSchedule(cfg model.SessionConfig) *Schedule {
	blocks := make([]model.BlockConfig, len(cfg.Blocks))
	copy(blocks, cfg.Blocks)
	return &Schedule{
		blockCount:       cfg.BlockCount,
		balloonsPerBlock: cfg.BalloonsPerBlock,
		blocks:           blocks,
		defaultPayout:    cfg.UnitPayout,
	}
}

// TotalBalloons returns the number of balloons in the session.
func (s *Schedule) TotalBalloons() int {
	return s.blockCount * s.balloonsPerBlock
}

// BlockIndexFor returns the 1-based block of a 1-based balloon index.
func (s *Schedule) BlockIndexFor(balloonIndex int) int {
	if balloonIndex < 1 {
		return 1
	}
	return (balloonIndex-1)/s.balloonsPerBlock + 1
}

// StartsBlock reports whether balloonIndex is the first balloon of its block.
func (s *Schedule) StartsBlock(balloonIndex int) bool {
	return (balloonIndex-1)%s.balloonsPerBlock == 0
}

// BlockConfigFor returns the configured settings for a balloon's block.
func (s *Schedule) BlockConfigFor(balloonIndex int) model.BlockConfig {
	return s.configForBlock(s.BlockIndexFor(balloonIndex))
}

// configForBlock falls back to the first block setting when the list is
// shorter than the block count. Existing configurations rely on this, so it
// neither cycles nor errors, although a shortfall is most likely a mistake.
func (s *Schedule) configForBlock(blockIndex int) model.BlockConfig {
	i := blockIndex - 1
	if i >= 0 && i < len(s.blocks) {
		return s.blocks[i]
	}
	return s.blocks[0]
}

// Enter resolves the parameters for blockIndex. A random color is drawn
// here, once per block, and must be reused for every balloon in it.
func (s *Schedule) Enter(blockIndex int, picker Picker) Params {
	cfg := s.configForBlock(blockIndex)
	color := cfg.Color
	if color == model.ColorRandom {
		color = model.ConcreteColors[picker.IntN(len(model.ConcreteColors))]
	}
	payout := cfg.UnitPayout
	if payout == 0 {
		payout = s.defaultPayout
	}
	return Params{
		Index:        blockIndex,
		MaxPumpCount: cfg.MaxPumpCount,
		Color:        color,
		UnitPayout:   payout,
	}
}
