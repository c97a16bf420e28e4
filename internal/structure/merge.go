package structure

import "StrokeSentinel/internal/model"

// maxElements caps how many constituents of the previous bar are carried into a merge.
const maxElements = 100

// NewMergedBar wraps a raw bar as a merged bar of its own.
func NewMergedBar(bar model.RawBar) model.MergedBar {
	return model.MergedBar{
		Symbol:   bar.Symbol,
		Time:     bar.Time,
		Open:     bar.Open,
		High:     bar.High,
		Low:      bar.Low,
		Close:    bar.Close,
		Volume:   bar.Volume,
		Elements: []model.RawBar{bar},
	}
}

// Merge removes containment between k2 and the raw bar k3, using k1 to decide the
// local direction. The returned bool reports whether k3 was merged into k2, in which
// case the result replaces k2; otherwise the result is a new bar to append.
func Merge(k1, k2 model.MergedBar, k3 model.RawBar) (model.MergedBar, bool) {
	direction := model.DirectionUp
	if k1.High > k2.High {
		direction = model.DirectionDown
	}

	contained := (k2.High <= k3.High && k2.Low >= k3.Low) || (k2.High >= k3.High && k2.Low <= k3.Low)
	if !contained {
		return NewMergedBar(k3), false
	}

	var high, low float64
	t := k3.Time
	if direction == model.DirectionUp {
		high = max(k2.High, k3.High)
		low = max(k2.Low, k3.Low)
		if k2.High > k3.High {
			t = k2.Time
		}
	} else {
		high = min(k2.High, k3.High)
		low = min(k2.Low, k3.Low)
		if k2.Low < k3.Low {
			t = k2.Time
		}
	}

	open, close := low, high
	if k3.Open > k3.Close {
		open, close = high, low
	}

	prev := k2.Elements
	if len(prev) > maxElements {
		prev = prev[len(prev)-maxElements:]
	}
	elements := make([]model.RawBar, 0, len(prev)+1)
	elements = append(elements, prev...)
	elements = append(elements, k3)

	return model.MergedBar{
		Symbol:   k3.Symbol,
		Time:     t,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   k2.Volume + k3.Volume,
		Elements: elements,
	}, true
}

// Append feeds one raw bar into a merged-bar buffer and returns the updated buffer.
// While the buffer holds fewer than two bars the raw bar is appended as is.
func Append(buf []model.MergedBar, bar model.RawBar) []model.MergedBar {
	if len(buf) < 2 {
		return append(buf, NewMergedBar(bar))
	}
	k, merged := Merge(buf[len(buf)-2], buf[len(buf)-1], bar)
	if merged {
		buf[len(buf)-1] = k
		return buf
	}
	return append(buf, k)
}
