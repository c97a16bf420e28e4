package structure

import (
	"time"

	"StrokeSentinel/internal/model"
)

// SubSpan selects the strokes that overlap [start, end]: strokes straddling start,
// strokes fully inside, and strokes straddling end. A leading or trailing stroke whose
// direction differs from direction is dropped, so a non-empty result starts and ends
// with direction when the input alternates.
func SubSpan(strokes []*model.Stroke, start, end time.Time, direction model.Direction) []*model.Stroke {
	var sub []*model.Stroke
	for _, s := range strokes {
		a, b := s.Start(), s.End()
		switch {
		case b.After(start) && start.After(a):
			sub = append(sub, s)
		case !start.After(a) && a.Before(b) && !b.After(end):
			sub = append(sub, s)
		case a.Before(end) && end.Before(b):
			sub = append(sub, s)
		}
	}

	if len(sub) > 0 && sub[0].Direction != direction {
		sub = sub[1:]
	}
	if len(sub) > 0 && sub[len(sub)-1].Direction != direction {
		sub = sub[:len(sub)-1]
	}
	return sub
}

// SubStrokes maps a higher-timeframe stroke onto a lower-timeframe stroke list.
func SubStrokes(strokes []*model.Stroke, parent *model.Stroke) []*model.Stroke {
	return SubSpan(strokes, parent.Start(), parent.End(), parent.Direction)
}
