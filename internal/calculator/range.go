package calculator

import (
	"errors"
	"math"

	"StrokeSentinel/internal/model"
)

// MergedRange returns the highest high and lowest low across the given merged bars.
func MergedRange(bars []model.MergedBar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// StrokeRange scans the most recent n strokes and returns the high and low.
func StrokeRange(strokes []*model.Stroke, n int) (high, low float64, err error) {
	if len(strokes) == 0 {
		return 0, 0, errors.New("no strokes provided")
	}
	if n <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	start := len(strokes) - n
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, s := range strokes[start:] {
		if s.High > high {
			high = s.High
		}
		if s.Low < low {
			low = s.Low
		}
	}
	return high, low, nil
}
