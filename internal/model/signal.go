package model

import (
	"fmt"
	"time"
)

// Label is a classification value carried by the signal vector.
type Label string

const (
	LabelOther Label = "OTHER"

	// Relation between the working buffer and the last stroke.
	LabelUpFinished    Label = "BIU0" // up stroke, working buffer stays below its high
	LabelUpExtending   Label = "BIU1" // up stroke, working buffer made a new high
	LabelDownFinished  Label = "BID0" // down stroke, working buffer stays above its low
	LabelDownExtending Label = "BID1" // down stroke, working buffer made a new low

	// Buy/sell zone after a finished stroke.
	LabelInBuyZone  Label = "INB"
	LabelInSellZone Label = "INS"

	// Price moved past the leading bar of the ending fractal.
	LabelFractalBuy  Label = "FXB"
	LabelFractalSell Label = "FXS"

	// Stroke shapes.
	LabelBottomDivergence      Label = "LA0" // aAb bottom divergence
	LabelTopDivergence         Label = "SA0" // aAb top divergence
	LabelTrendBottomDivergence Label = "LB0"
	LabelTrendTopDivergence    Label = "SB0"
	LabelThirdBuy              Label = "LI0"
	LabelThirdSell             Label = "SI0"
	LabelNecklineBreakUp       Label = "LG0"
	LabelNecklineBreakDown     Label = "SG0"
)

// RollingWindows are the stroke counts used for rolling high/low.
var RollingWindows = [6]int{5, 7, 9, 11, 13, 15}

// ShapeSizes are the stroke counts handed to the shape classifiers.
var ShapeSizes = [3]int{5, 7, 9}

// StrokeStat summarizes one stroke counted back from the end of the analysis window.
type StrokeStat struct {
	Direction Direction
	Length    int
	Power     float64
	Change    float64
	RSQ       float64
}

// RollingExtreme is the high/low over the trailing Count strokes.
type RollingExtreme struct {
	Count int
	High  float64
	Low   float64
}

// SignalVector is the feature set derived after every update.
// Ranks[0] is the most recent stroke of the analysis window.
type SignalVector struct {
	Symbol     string
	Time       time.Time
	Close      float64
	WorkingLen int

	Ranks   [5]StrokeStat
	Rolling [6]RollingExtreme

	BiRelation Label
	Zone       Label
	EndFractal Label

	// Shapes[i][k] is the classification for ShapeSizes[i] strokes ending k strokes back.
	Shapes [3][5]Label
}

// NewSignalVector returns a vector with every derived field at its default.
func NewSignalVector(symbol string, t time.Time, close float64, workingLen int) SignalVector {
	v := SignalVector{
		Symbol:     symbol,
		Time:       t,
		Close:      close,
		WorkingLen: workingLen,
		BiRelation: LabelOther,
		Zone:       LabelOther,
		EndFractal: LabelOther,
	}
	for i, n := range RollingWindows {
		v.Rolling[i].Count = n
	}
	for i := range v.Shapes {
		for k := range v.Shapes[i] {
			v.Shapes[i][k] = LabelOther
		}
	}
	return v
}

// Field is one key/value pair of the flattened vector.
type Field struct {
	Key   string
	Value interface{}
}

// Fields flattens the vector into an ordered key/value list.
func (v SignalVector) Fields() []Field {
	out := []Field{
		{"symbol", v.Symbol},
		{"time", v.Time},
		{"close", v.Close},
		{"working_len", v.WorkingLen},
	}
	for i, r := range v.Ranks {
		dir := string(LabelOther)
		if r.Direction != "" {
			dir = string(r.Direction)
		}
		n := i + 1
		out = append(out,
			Field{fmt.Sprintf("rank%d_direction", n), dir},
			Field{fmt.Sprintf("rank%d_length", n), r.Length},
			Field{fmt.Sprintf("rank%d_power", n), r.Power},
			Field{fmt.Sprintf("rank%d_change", n), r.Change},
			Field{fmt.Sprintf("rank%d_rsq", n), r.RSQ},
		)
	}
	for _, r := range v.Rolling {
		out = append(out,
			Field{fmt.Sprintf("last%d_high", r.Count), r.High},
			Field{fmt.Sprintf("last%d_low", r.Count), r.Low},
		)
	}
	out = append(out,
		Field{"bi_relation", string(v.BiRelation)},
		Field{"zone", string(v.Zone)},
		Field{"end_fractal", string(v.EndFractal)},
	)
	for i, n := range ShapeSizes {
		for k, l := range v.Shapes[i] {
			out = append(out, Field{fmt.Sprintf("rank%d_shape%d", k+1, n), string(l)})
		}
	}
	return out
}
