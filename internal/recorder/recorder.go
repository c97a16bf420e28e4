package recorder

import (
	"time"

	"StrokeSentinel/internal/model"
)

// StrokeRow is a persisted confirmed stroke.
type StrokeRow struct {
	RunID      string
	Symbol     string
	Freq       string
	StrokeID   uint64
	Direction  model.Direction
	Start      time.Time
	End        time.Time
	StartPrice float64
	EndPrice   float64
	Power      float64
	Change     float64
	Length     int
	RSQ        float64
	Superseded bool
}

// Recorder persists historical data for analysis.
type Recorder interface {
	// RecordStroke stores a newly confirmed stroke of the timeframe freq.
	RecordStroke(freq string, s *model.Stroke) error
	// MarkSuperseded flags a recorded stroke that a breach pulled back.
	MarkSuperseded(freq string, s *model.Stroke) error
	// RecordSignals stores a signal vector snapshot of the timeframe freq.
	RecordSignals(freq string, v model.SignalVector) error
	Close() error
}
