package engine

import (
	"StrokeSentinel/internal/calculator"
	"StrokeSentinel/internal/model"
	"StrokeSentinel/internal/shape"
)

const (
	// minSignalStrokes is the analysis window size below which only defaults are reported.
	minSignalStrokes = 16
	// maxZoneWorkingBars limits zone classification to a young unfinished stroke.
	maxZoneWorkingBars = 11
)

// BuildSignals derives the signal vector from the raw history, the working buffer
// and the live strokes.
func BuildSignals(symbol string, raw []model.RawBar, working []model.MergedBar, strokes []*model.Stroke, tolerance float64, shapes shape.Classifier) model.SignalVector {
	var last model.RawBar
	if len(raw) > 0 {
		last = raw[len(raw)-1]
	}
	v := model.NewSignalVector(symbol, last.Time, last.Close, len(working))

	if len(strokes) > 0 && len(working) > 0 {
		lastBi := strokes[len(strokes)-1]
		high, low, _ := calculator.MergedRange(working)
		switch lastBi.Direction {
		case model.DirectionDown:
			v.BiRelation = model.LabelDownFinished
			if low < lastBi.Low {
				v.BiRelation = model.LabelDownExtending
			}
		case model.DirectionUp:
			v.BiRelation = model.LabelUpFinished
			if high > lastBi.High {
				v.BiRelation = model.LabelUpExtending
			}
		}
	}

	// an extending stroke is not final yet, leave it out of the analysis
	bis := strokes
	if v.BiRelation != model.LabelUpFinished && v.BiRelation != model.LabelDownFinished && len(bis) > 0 {
		bis = bis[:len(bis)-1]
	}
	if len(bis) < minSignalStrokes {
		return v
	}

	for i, n := range model.RollingWindows {
		high, low, _ := calculator.StrokeRange(bis, n)
		v.Rolling[i] = model.RollingExtreme{Count: n, High: high, Low: low}
	}
	for i := range v.Ranks {
		s := bis[len(bis)-1-i]
		v.Ranks[i] = model.StrokeStat{
			Direction: s.Direction,
			Length:    s.Length,
			Power:     s.Power,
			Change:    s.Change,
			RSQ:       s.RSQ,
		}
	}

	if len(working) > 0 && len(working) <= maxZoneWorkingBars {
		lastBi := bis[len(bis)-1]
		live := strokes[len(strokes)-1]
		tail := working[len(working)-1]
		anchor := lastBi.FxB.Elements[0]

		if lastBi.Direction == model.DirectionDown && live.Direction == model.DirectionDown {
			if lastBi.Low < tail.High && tail.High < lastBi.Low*(1+tolerance) {
				v.Zone = model.LabelInBuyZone
			}
			if anchor.High < tail.High {
				v.EndFractal = model.LabelFractalBuy
			}
		}
		if lastBi.Direction == model.DirectionUp && live.Direction == model.DirectionUp {
			if lastBi.High > tail.Low && tail.Low > lastBi.High*(1-tolerance) {
				v.Zone = model.LabelInSellZone
			}
			if anchor.Low > tail.Low {
				v.EndFractal = model.LabelFractalSell
			}
		}
	}

	for i, n := range model.ShapeSizes {
		classify := shapes.ForSize(n)
		if classify == nil {
			continue
		}
		for k := range v.Shapes[i] {
			end := len(bis) - k
			v.Shapes[i][k] = classify(bis[end-n : end])
		}
	}
	return v
}
