package model

// TrialStatus is the lifecycle state of one balloon.
type TrialStatus string

const (
	StatusActive    TrialStatus = "active"
	StatusExploded  TrialStatus = "exploded"
	StatusCollected TrialStatus = "collected"
)

// Terminal reports whether no further transitions are possible.
func (s TrialStatus) Terminal() bool {
	return s == StatusExploded || s == StatusCollected
}

// TrialRecord is the persisted outcome of one completed balloon.
type TrialRecord struct {
	BalloonIndex   int
	BlockIndex     int
	PumpCount      int
	Exploded       bool
	AmountEarned   int
	ReactionTime   *float64 // seconds
	Color          Color
	ExplosionPoint int // pump attempt that exploded, 0 when collected
	MaxPumpCount   int
	UnitPayout     int
	Subject        Subject
}

// Snapshot is the read-only view exposed to displays after each transition.
type Snapshot struct {
	Variant       Variant
	BalloonIndex  int
	TotalBalloons int
	BlockIndex    int
	BlockCount    int
	PumpCount     int
	Status        TrialStatus
	Exploded      bool
	Pending       int // uncollected earnings on the current balloon
	Banked        int
	TotalEarned   int
	LastEarned    int
	Color         Color
	MaxPumpCount  int
	UnitPayout    int
	Inflating     bool
	Finished      bool
}
