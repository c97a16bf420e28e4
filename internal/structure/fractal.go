package structure

import "StrokeSentinel/internal/model"

// CheckFractal reports whether k2 is a top or bottom fractal of the three bars.
func CheckFractal(k1, k2, k3 model.MergedBar) (model.Fractal, bool) {
	var fx model.Fractal
	found := false

	if k1.High < k2.High && k2.High > k3.High {
		power := model.PowerWeak
		if k3.Close < k1.Low {
			power = model.PowerStrong
		}
		// gap between k1 and k2 moves the lower bound up to k2
		low := k2.Low
		if k1.High > k2.Low {
			low = k1.Low
		}
		fx = model.Fractal{
			Symbol: k1.Symbol, Time: k2.Time, Mark: model.MarkTop,
			High: k2.High, Low: low, Fx: k2.High, Power: power,
			Elements: [3]model.MergedBar{k1, k2, k3},
		}
		found = true
	}

	if k1.Low > k2.Low && k2.Low < k3.Low {
		power := model.PowerWeak
		if k3.Close > k1.High {
			power = model.PowerStrong
		}
		high := k2.High
		if k1.Low < k2.High {
			high = k1.High
		}
		fx = model.Fractal{
			Symbol: k1.Symbol, Time: k2.Time, Mark: model.MarkBottom,
			High: high, Low: k2.Low, Fx: k2.Low, Power: power,
			Elements: [3]model.MergedBar{k1, k2, k3},
		}
		found = true
	}

	return fx, found
}

// FindFractals scans every interior bar of the window.
func FindFractals(bars []model.MergedBar) []model.Fractal {
	var out []model.Fractal
	for i := 1; i < len(bars)-1; i++ {
		if fx, ok := CheckFractal(bars[i-1], bars[i], bars[i+1]); ok {
			out = append(out, fx)
		}
	}
	return out
}
