package structure

import (
	"log"
	"math"

	"StrokeSentinel/internal/calculator"
	"StrokeSentinel/internal/model"
)

const (
	// minStrokeBars is the bar count that confirms a stroke unconditionally.
	minStrokeBars = 7
	// minPowerStrokeBars confirms a stroke when its power clearly exceeds the fractal ranges.
	minPowerStrokeBars = 5
)

// CheckStroke looks for the first stroke in a window of merged bars.
// On success it returns the stroke and the bars from the ending fractal onward,
// which seed the search for the next stroke. Otherwise it returns nil and the
// window unchanged.
func CheckStroke(bars []model.MergedBar) (*model.Stroke, []model.MergedBar) {
	fxs := FindFractals(bars)
	if len(fxs) < 2 {
		return nil, bars
	}

	fxA := fxs[0]
	var fxB model.Fractal
	var direction model.Direction

	switch fxA.Mark {
	case model.MarkBottom:
		direction = model.DirectionUp
		var candidates []model.Fractal
		for _, fx := range fxs {
			if fx.Mark == model.MarkTop && fx.Time.After(fxA.Time) && fx.Fx > fxA.Fx {
				candidates = append(candidates, fx)
			}
		}
		if len(candidates) == 0 {
			return nil, bars
		}
		fxB = candidates[0]
		for _, fx := range candidates {
			if fx.High >= fxB.High {
				fxB = fx
			}
		}
	case model.MarkTop:
		direction = model.DirectionDown
		var candidates []model.Fractal
		for _, fx := range fxs {
			if fx.Mark == model.MarkBottom && fx.Time.After(fxA.Time) && fx.Fx < fxA.Fx {
				candidates = append(candidates, fx)
			}
		}
		if len(candidates) == 0 {
			return nil, bars
		}
		fxB = candidates[0]
		for _, fx := range candidates[1:] {
			if fx.Low <= fxB.Low {
				fxB = fx
			}
		}
	default:
		log.Printf("[ERROR] %s: unexpected fractal mark %q at %s", fxA.Symbol, fxA.Mark, fxA.Time)
		return nil, bars
	}

	start := fxA.Elements[0].Time
	end := fxB.Elements[2].Time
	var barsA, barsB []model.MergedBar
	for _, b := range bars {
		if !b.Time.Before(start) && !b.Time.After(end) {
			barsA = append(barsA, b)
		}
		if !b.Time.Before(fxB.Elements[0].Time) {
			barsB = append(barsB, b)
		}
	}

	abInclude := (fxA.High > fxB.High && fxA.Low < fxB.Low) || (fxA.High < fxB.High && fxA.Low > fxB.Low)
	power := calculator.Round(math.Abs(fxB.Fx-fxA.Fx), 2)
	rangeSum := (fxA.High - fxA.Low) + (fxB.High - fxB.Low)

	if abInclude {
		return nil, bars
	}
	if len(barsA) < minStrokeBars && !(power > 2*rangeSum && len(barsA) >= minPowerStrokeBars) {
		return nil, bars
	}

	closes := make([]float64, 0, len(barsA))
	for _, b := range barsA[1 : len(barsA)-1] {
		closes = append(closes, b.Close)
	}

	return &model.Stroke{
		Symbol:    fxA.Symbol,
		Direction: direction,
		FxA:       fxA,
		FxB:       fxB,
		High:      max(fxA.High, fxB.High),
		Low:       min(fxA.Low, fxB.Low),
		Power:     power,
		Change:    calculator.Round((fxB.Fx-fxA.Fx)/fxA.Fx, 4),
		Length:    len(barsA),
		RSQ:       calculator.CalculateRSQ(closes),
		Bars:      barsA,
	}, barsB
}
