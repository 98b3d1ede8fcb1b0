package recorder

import "BARTHub/internal/model"

// NoopRecorder discards records; used by dry runs and tests.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrial(_ *model.TrialRecord) error { return nil }
func (n *NoopRecorder) Close() error                           { return nil }
