package engine

import "StrokeSentinel/internal/model"

// StrokeLog is the append-only list of live strokes. Retracted strokes leave the
// live tail and are flagged superseded so outside references stay usable.
type StrokeLog struct {
	nextID uint64
	live   []*model.Stroke
}

// Append assigns the next id and adds the stroke to the tail.
func (l *StrokeLog) Append(s *model.Stroke) {
	l.nextID++
	s.ID = l.nextID
	l.live = append(l.live, s)
}

// Retract removes the last k live strokes, marks them superseded and returns them.
func (l *StrokeLog) Retract(k int) []*model.Stroke {
	if k > len(l.live) {
		k = len(l.live)
	}
	cut := len(l.live) - k
	removed := append([]*model.Stroke(nil), l.live[cut:]...)
	for _, s := range removed {
		s.Superseded = true
	}
	l.live = l.live[:cut]
	return removed
}

// Trim keeps only the newest n strokes.
func (l *StrokeLog) Trim(n int) {
	if len(l.live) <= n {
		return
	}
	l.live = append([]*model.Stroke(nil), l.live[len(l.live)-n:]...)
}

// Len returns the number of live strokes.
func (l *StrokeLog) Len() int { return len(l.live) }

// Last returns the newest live stroke, or nil.
func (l *StrokeLog) Last() *model.Stroke {
	if len(l.live) == 0 {
		return nil
	}
	return l.live[len(l.live)-1]
}

// Live returns the live strokes, oldest first. The slice must not be modified.
func (l *StrokeLog) Live() []*model.Stroke { return l.live }

// NextID returns the id the next appended stroke will receive.
func (l *StrokeLog) NextID() uint64 { return l.nextID + 1 }
