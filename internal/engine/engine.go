package engine

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"StrokeSentinel/internal/calculator"
	"StrokeSentinel/internal/model"
	"StrokeSentinel/internal/shape"
	"StrokeSentinel/internal/structure"
)

const (
	// DefaultMaxBiCount is how many confirmed strokes an engine keeps.
	DefaultMaxBiCount = 20
	// maxWorkingBars is the unfinished stroke length that triggers a warning.
	maxWorkingBars = 300
)

var (
	// ErrEmptyBars is returned when an engine is built without any bars.
	ErrEmptyBars = errors.New("no bars to initialize from")
	// ErrUnknownTimeframe is returned when the timeframe has no tolerance entry.
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// DefaultTolerances maps timeframe labels to the buy/sell zone tolerance.
var DefaultTolerances = map[string]float64{
	"1d":  0.21,
	"60m": 0.13,
	"30m": 0.08,
	"15m": 0.05,
	"5m":  0.03,
	"1m":  0.02,
}

// State describes how far the decomposition has progressed.
type State string

const (
	StateEmpty     State = "EMPTY"
	StateNoStrokes State = "NO_STROKES"
	StateSteady    State = "STEADY"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	MaxBiCount int
	Tolerances map[string]float64
	Shapes     shape.Classifier
}

// Engine incrementally decomposes one symbol/timeframe bar stream into strokes.
// It is not safe for concurrent use.
type Engine struct {
	symbol     string
	freq       string
	maxBiCount int
	tolerance  float64
	shapes     shape.Classifier

	rawBars []model.RawBar
	working []model.MergedBar
	strokes StrokeLog
	signals model.SignalVector
}

// New builds an engine for the timeframe freq and feeds it the initial bars.
func New(bars []model.RawBar, freq string, opts Options) (*Engine, error) {
	if len(bars) == 0 {
		return nil, ErrEmptyBars
	}
	tolerances := opts.Tolerances
	if tolerances == nil {
		tolerances = DefaultTolerances
	}
	tol, ok := tolerances[freq]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeframe, freq)
	}
	maxBi := opts.MaxBiCount
	if maxBi <= 0 {
		maxBi = DefaultMaxBiCount
	}
	shapes := opts.Shapes
	if shapes.Five == nil || shapes.Seven == nil || shapes.Nine == nil {
		shapes = shape.Default()
	}

	e := &Engine{
		symbol:     bars[0].Symbol,
		freq:       freq,
		maxBiCount: maxBi,
		tolerance:  tol,
		shapes:     shapes,
	}
	for _, b := range bars {
		e.Update(b)
	}
	return e, nil
}

// Update ingests one bar. A bar with the same timestamp as the last raw bar
// replaces it and the last merged bar is rebuilt from its constituents.
func (e *Engine) Update(bar model.RawBar) {
	var pending []model.RawBar
	n := len(e.rawBars)
	if n == 0 || !bar.Time.Equal(e.rawBars[n-1].Time) {
		e.rawBars = append(e.rawBars, bar)
		pending = []model.RawBar{bar}
	} else {
		e.rawBars[n-1] = bar
		if w := len(e.working); w > 0 {
			elements := e.working[w-1].Elements
			pending = make([]model.RawBar, len(elements))
			copy(pending, elements)
			pending[len(pending)-1] = bar
			e.working = e.working[:w-1]
		} else {
			pending = []model.RawBar{bar}
		}
	}

	for _, b := range pending {
		e.working = structure.Append(e.working, b)
	}

	e.updateStrokes()
	e.strokes.Trim(e.maxBiCount)
	e.pruneRawBars()
	e.signals = BuildSignals(e.symbol, e.rawBars, e.working, e.strokes.Live(), e.tolerance, e.shapes)
}

func (e *Engine) updateStrokes() {
	if len(e.working) < 3 {
		return
	}

	if e.strokes.Len() == 0 {
		fxs := structure.FindFractals(e.working)
		if len(fxs) == 0 {
			return
		}
		// anchor on the most extreme fractal of the first fractal's kind
		fxA := fxs[0]
		for _, fx := range fxs {
			if fx.Mark != fxA.Mark {
				continue
			}
			if (fxA.Mark == model.MarkBottom && fx.Low <= fxA.Low) || (fxA.Mark == model.MarkTop && fx.High >= fxA.High) {
				fxA = fx
			}
		}
		s, rest := structure.CheckStroke(barsSince(e.working, fxA.Elements[0].Time))
		if s != nil {
			e.strokes.Append(s)
		}
		e.working = rest
		return
	}

	last := e.strokes.Last()
	high, low, _ := calculator.MergedRange(e.working[2:])

	buf := e.working
	switch {
	case last.Direction == model.DirectionUp && high > last.High:
		buf = e.retract(low < last.Low)
	case last.Direction == model.DirectionDown && low < last.Low:
		buf = e.retract(high > last.High)
	}

	if len(buf) > maxWorkingBars {
		log.Printf("[WARN] %s %s: unfinished stroke extends over %d bars", e.symbol, e.freq, len(buf))
	}
	s, rest := structure.CheckStroke(buf)
	e.working = rest
	if s != nil {
		e.strokes.Append(s)
	}
}

// retract pulls the last stroke (or the last two when both is set and enough
// strokes exist) back into the working buffer and returns the extended buffer.
func (e *Engine) retract(both bool) []model.MergedBar {
	live := e.strokes.Live()
	last := live[len(live)-1]
	lastEnd := last.Bars[len(last.Bars)-1].Time

	var buf []model.MergedBar
	if both && len(live) > 2 {
		prev := live[len(live)-2]
		buf = append(buf, prev.Bars...)
		buf = append(buf, barsAfter(last.Bars, prev.Bars[len(prev.Bars)-1].Time)...)
		buf = append(buf, barsAfter(e.working, lastEnd)...)
		e.strokes.Retract(2)
		return buf
	}
	buf = append(buf, last.Bars...)
	buf = append(buf, barsAfter(e.working, lastEnd)...)
	e.strokes.Retract(1)
	return buf
}

func (e *Engine) pruneRawBars() {
	first := e.strokes.Live()
	if len(first) == 0 {
		return
	}
	start := first[0].FxA.Elements[0].Time
	for i, b := range e.rawBars {
		if !b.Time.Before(start) {
			e.rawBars = e.rawBars[i:]
			return
		}
	}
}

func barsSince(bars []model.MergedBar, t time.Time) []model.MergedBar {
	var out []model.MergedBar
	for _, b := range bars {
		if !b.Time.Before(t) {
			out = append(out, b)
		}
	}
	return out
}

func barsAfter(bars []model.MergedBar, t time.Time) []model.MergedBar {
	var out []model.MergedBar
	for _, b := range bars {
		if b.Time.After(t) {
			out = append(out, b)
		}
	}
	return out
}

// Symbol returns the instrument the engine tracks.
func (e *Engine) Symbol() string { return e.symbol }

// Freq returns the timeframe label.
func (e *Engine) Freq() string { return e.freq }

// Tolerance returns the buy/sell zone tolerance for the timeframe.
func (e *Engine) Tolerance() float64 { return e.tolerance }

// RawBars returns a copy of the retained raw bar history.
func (e *Engine) RawBars() []model.RawBar { return slices.Clone(e.rawBars) }

// Working returns a copy of the merged bars not yet resolved into a stroke.
func (e *Engine) Working() []model.MergedBar { return slices.Clone(e.working) }

// Strokes returns the live confirmed strokes, oldest first.
func (e *Engine) Strokes() []*model.Stroke { return slices.Clone(e.strokes.Live()) }

// LastStroke returns the newest confirmed stroke, or nil.
func (e *Engine) LastStroke() *model.Stroke { return e.strokes.Last() }

// NextStrokeID returns the id the next confirmed stroke will receive.
func (e *Engine) NextStrokeID() uint64 { return e.strokes.NextID() }

// Signals returns the signal vector computed by the last update.
func (e *Engine) Signals() model.SignalVector { return e.signals }

// LastBar returns the most recent raw bar.
func (e *Engine) LastBar() (model.RawBar, bool) {
	if len(e.rawBars) == 0 {
		return model.RawBar{}, false
	}
	return e.rawBars[len(e.rawBars)-1], true
}

// State reports the decomposition progress.
func (e *Engine) State() State {
	switch {
	case len(e.rawBars) == 0:
		return StateEmpty
	case e.strokes.Len() == 0:
		return StateNoStrokes
	default:
		return StateSteady
	}
}

// StrokePoints returns the stroke polyline: each stroke's start plus the last end.
func (e *Engine) StrokePoints() []model.StrokePoint {
	live := e.strokes.Live()
	if len(live) == 0 {
		return nil
	}
	pts := make([]model.StrokePoint, 0, len(live)+1)
	for _, s := range live {
		pts = append(pts, model.StrokePoint{Time: s.FxA.Time, Price: s.FxA.Fx})
	}
	last := live[len(live)-1]
	return append(pts, model.StrokePoint{Time: last.FxB.Time, Price: last.FxB.Fx})
}

// Align maps the newest stroke of the higher timeframe onto the lower timeframe's strokes.
func Align(higher, lower *Engine) []*model.Stroke {
	parent := higher.LastStroke()
	if parent == nil {
		return nil
	}
	return structure.SubStrokes(lower.Strokes(), parent)
}
