package shape

import (
	"math"

	"StrokeSentinel/internal/model"
)

// Func classifies exactly N strokes ordered oldest to newest.
type Func func(strokes []*model.Stroke) model.Label

// Classifier bundles the five, seven and nine stroke predicates.
type Classifier struct {
	Five  Func
	Seven Func
	Nine  Func
}

// Default returns the built-in classifier set.
func Default() Classifier {
	return Classifier{Five: CheckFive, Seven: CheckSeven, Nine: CheckNine}
}

// ForSize returns the predicate for n strokes, or nil if there is none.
func (c Classifier) ForSize(n int) Func {
	switch n {
	case 5:
		return c.Five
	case 7:
		return c.Seven
	case 9:
		return c.Nine
	default:
		return nil
	}
}

// center returns the overlapping price zone of the given strokes.
func center(strokes ...*model.Stroke) (zg, zd float64, ok bool) {
	zg = math.Inf(1)
	zd = math.Inf(-1)
	for _, s := range strokes {
		zg = min(zg, s.High)
		zd = max(zd, s.Low)
	}
	return zg, zd, zg > zd
}

func extremes(strokes []*model.Stroke) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, s := range strokes {
		high = max(high, s.High)
		low = min(low, s.Low)
	}
	return high, low
}

// CheckFive classifies five strokes.
func CheckFive(fdx []*model.Stroke) model.Label {
	if len(fdx) != 5 {
		return model.LabelOther
	}
	fd1, fd2, fd3, fd4, fd5 := fdx[0], fdx[1], fdx[2], fdx[3], fdx[4]
	maxHigh, minLow := extremes(fdx)

	switch fd1.Direction {
	case model.DirectionDown:
		// aAb: the two up strokes overlap and the last leg is weaker than the first
		if _, _, ok := center(fd2, fd4); ok && maxHigh == fd1.High && minLow == fd5.Low && fd5.Power < fd1.Power {
			return model.LabelBottomDivergence
		}
		// stair-step decline losing momentum
		if maxHigh == fd1.High && minLow == fd5.Low && fd4.High < fd2.Low && fd5.Power < max(fd1.Power, fd3.Power) {
			return model.LabelTrendBottomDivergence
		}
		if zg, _, ok := center(fd1, fd2, fd3); ok && fd4.High == maxHigh && fd5.Low > zg {
			return model.LabelThirdBuy
		}
		if minLow == fd3.Low && fd4.High > fd2.High && fd5.Low > fd3.Low {
			return model.LabelNecklineBreakUp
		}
	case model.DirectionUp:
		if _, _, ok := center(fd2, fd4); ok && minLow == fd1.Low && maxHigh == fd5.High && fd5.Power < fd1.Power {
			return model.LabelTopDivergence
		}
		if minLow == fd1.Low && maxHigh == fd5.High && fd4.Low > fd2.High && fd5.Power < max(fd1.Power, fd3.Power) {
			return model.LabelTrendTopDivergence
		}
		if _, zd, ok := center(fd1, fd2, fd3); ok && fd4.Low == minLow && fd5.High < zd {
			return model.LabelThirdSell
		}
		if maxHigh == fd3.High && fd4.Low < fd2.Low && fd5.High < fd3.High {
			return model.LabelNecklineBreakDown
		}
	}
	return model.LabelOther
}

// CheckSeven classifies seven strokes.
func CheckSeven(fdx []*model.Stroke) model.Label {
	if len(fdx) != 7 {
		return model.LabelOther
	}
	fd1, fd5, fd6, fd7 := fdx[0], fdx[4], fdx[5], fdx[6]
	maxHigh, minLow := extremes(fdx)

	switch fd1.Direction {
	case model.DirectionDown:
		if _, _, ok := center(fdx[1], fdx[3], fdx[5]); ok && maxHigh == fd1.High && minLow == fd7.Low && fd7.Power < fd5.Power {
			return model.LabelBottomDivergence
		}
		if zg, _, ok := center(fdx[:5]...); ok && fd6.High == maxHigh && fd7.Low > zg {
			return model.LabelThirdBuy
		}
	case model.DirectionUp:
		if _, _, ok := center(fdx[1], fdx[3], fdx[5]); ok && minLow == fd1.Low && maxHigh == fd7.High && fd7.Power < fd5.Power {
			return model.LabelTopDivergence
		}
		if _, zd, ok := center(fdx[:5]...); ok && fd6.Low == minLow && fd7.High < zd {
			return model.LabelThirdSell
		}
	}
	return model.LabelOther
}

// CheckNine classifies nine strokes.
func CheckNine(fdx []*model.Stroke) model.Label {
	if len(fdx) != 9 {
		return model.LabelOther
	}
	fd1, fd8, fd9 := fdx[0], fdx[7], fdx[8]
	maxHigh, minLow := extremes(fdx)

	switch fd1.Direction {
	case model.DirectionDown:
		if _, _, ok := center(fdx[3], fdx[5]); ok && maxHigh == fd1.High && minLow == fd9.Low && fd9.Power < fd1.Power {
			return model.LabelBottomDivergence
		}
		if zg, _, ok := center(fdx[:7]...); ok && fd8.High == maxHigh && fd9.Low > zg {
			return model.LabelThirdBuy
		}
	case model.DirectionUp:
		if _, _, ok := center(fdx[3], fdx[5]); ok && minLow == fd1.Low && maxHigh == fd9.High && fd9.Power < fd1.Power {
			return model.LabelTopDivergence
		}
		if _, zd, ok := center(fdx[:7]...); ok && fd8.Low == minLow && fd9.High < zd {
			return model.LabelThirdSell
		}
	}
	return model.LabelOther
}
