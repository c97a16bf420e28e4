package model

import "time"

// RawBar represents a single candlestick bar as received from the data source.
type RawBar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MergedBar is a bar with containment removed. Elements holds the raw bars it was built from.
type MergedBar struct {
	Symbol   string
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Elements []RawBar
}

// Mark distinguishes top and bottom fractals.
type Mark string

const (
	MarkTop    Mark = "TOP"
	MarkBottom Mark = "BOTTOM"
)

// Power grades a fractal by whether its trailing bar closes beyond the leading bar.
type Power string

const (
	PowerStrong Power = "STRONG"
	PowerWeak   Power = "WEAK"
)

// Direction of a stroke.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Fractal is a three-bar local extremum.
type Fractal struct {
	Symbol   string
	Time     time.Time
	Mark     Mark
	High     float64
	Low      float64
	Fx       float64
	Power    Power
	Elements [3]MergedBar
}

// Stroke is a confirmed move between two opposite fractals.
type Stroke struct {
	ID        uint64
	Symbol    string
	Direction Direction
	FxA       Fractal
	FxB       Fractal
	High      float64
	Low       float64
	Power     float64
	Change    float64
	Length    int
	RSQ       float64
	Bars      []MergedBar

	// Superseded is set when the stroke is retracted by later price action.
	Superseded bool
}

// Start returns the time of the starting fractal.
func (s *Stroke) Start() time.Time { return s.FxA.Time }

// End returns the time of the ending fractal.
func (s *Stroke) End() time.Time { return s.FxB.Time }

// StrokePoint is one vertex of the stroke polyline.
type StrokePoint struct {
	Time  time.Time
	Price float64
}
