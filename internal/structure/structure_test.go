package structure

import (
	"testing"
	"time"

	"StrokeSentinel/internal/model"
)

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

// bar builds a one-unit-wide raw bar centred on c at minute i.
func bar(i int, c float64) model.RawBar {
	return model.RawBar{
		Symbol: "TEST",
		Time:   t0.Add(time.Duration(i) * time.Minute),
		Open:   c,
		High:   c + 0.5,
		Low:    c - 0.5,
		Close:  c,
		Volume: 100,
	}
}

func mergeCloses(closes ...float64) []model.MergedBar {
	var buf []model.MergedBar
	for i, c := range closes {
		buf = Append(buf, bar(i, c))
	}
	return buf
}

func merged(i int, high, low float64) model.MergedBar {
	b := model.RawBar{Symbol: "TEST", Time: t0.Add(time.Duration(i) * time.Minute), Open: low, High: high, Low: low, Close: high}
	return NewMergedBar(b)
}

func TestMerge_NoContainment(t *testing.T) {
	k1 := merged(0, 2, 1)
	k2 := merged(1, 3, 2)
	k3 := model.RawBar{Time: t0.Add(2 * time.Minute), High: 4, Low: 2.5, Open: 3, Close: 3.5}
	got, ok := Merge(k1, k2, k3)
	if ok {
		t.Fatal("expected no merge")
	}
	if got.High != 4 || got.Low != 2.5 || len(got.Elements) != 1 {
		t.Errorf("unexpected bar: %+v", got)
	}
}

func TestMerge_UpContainment(t *testing.T) {
	k1 := merged(0, 2, 1)
	k2 := merged(1, 4, 2)
	k2.Volume = 10
	k3 := model.RawBar{Time: t0.Add(2 * time.Minute), High: 3.5, Low: 2.5, Open: 3.4, Close: 2.6, Volume: 5}
	got, ok := Merge(k1, k2, k3)
	if !ok {
		t.Fatal("expected merge")
	}
	if got.High != 4 || got.Low != 2.5 {
		t.Errorf("expected high 4 low 2.5, got %v/%v", got.High, got.Low)
	}
	if !got.Time.Equal(k2.Time) {
		t.Errorf("expected time from k2, got %v", got.Time)
	}
	if got.Open != 4 || got.Close != 2.5 {
		t.Errorf("bearish k3 should give open=high close=low, got %v/%v", got.Open, got.Close)
	}
	if got.Volume != 15 {
		t.Errorf("expected volume 15, got %v", got.Volume)
	}
	if len(got.Elements) != 2 {
		t.Errorf("expected 2 elements, got %d", len(got.Elements))
	}
}

func TestMerge_DownContainment(t *testing.T) {
	k1 := merged(0, 6, 5)
	k2 := merged(1, 5, 3)
	k3 := model.RawBar{Time: t0.Add(2 * time.Minute), High: 5.5, Low: 2.5, Open: 3, Close: 5}
	got, ok := Merge(k1, k2, k3)
	if !ok {
		t.Fatal("expected merge")
	}
	if got.High != 5 || got.Low != 2.5 {
		t.Errorf("expected high 5 low 2.5, got %v/%v", got.High, got.Low)
	}
	if !got.Time.Equal(k3.Time) {
		t.Errorf("expected time from k3, got %v", got.Time)
	}
	if got.Open != 2.5 || got.Close != 5 {
		t.Errorf("bullish k3 should give open=low close=high, got %v/%v", got.Open, got.Close)
	}
}

func TestMerge_ElementsCap(t *testing.T) {
	k1 := merged(0, 2, 1)
	k2 := merged(1, 10, 2)
	for i := 0; i < 149; i++ {
		k2.Elements = append(k2.Elements, model.RawBar{Time: t0.Add(time.Duration(i+2) * time.Minute)})
	}
	k3 := model.RawBar{Time: t0.Add(time.Hour * 5), High: 5, Low: 4}
	got, ok := Merge(k1, k2, k3)
	if !ok {
		t.Fatal("expected merge")
	}
	if len(got.Elements) != maxElements+1 {
		t.Fatalf("expected %d elements, got %d", maxElements+1, len(got.Elements))
	}
	if !got.Elements[0].Time.Equal(k2.Elements[50].Time) {
		t.Errorf("expected the oldest constituents to be dropped")
	}
	if !got.Elements[maxElements].Time.Equal(k3.Time) {
		t.Errorf("expected k3 last")
	}
}

func TestAppend_NoConsecutiveContainment(t *testing.T) {
	hl := [][2]float64{{10, 9}, {11, 9.5}, {10.8, 9.8}, {12, 10}, {11.5, 10.5}, {11.8, 10.2}, {13, 11}, {9, 8}}
	var buf []model.MergedBar
	for i, p := range hl {
		buf = Append(buf, model.RawBar{Symbol: "TEST", Time: t0.Add(time.Duration(i) * time.Minute), High: p[0], Low: p[1], Open: p[1], Close: p[0]})
	}
	if len(buf) != 6 {
		t.Fatalf("expected 6 merged bars, got %d", len(buf))
	}
	for i := 1; i < len(buf); i++ {
		a, b := buf[i-1], buf[i]
		if (a.High <= b.High && a.Low >= b.Low) || (a.High >= b.High && a.Low <= b.Low) {
			t.Errorf("bars %d and %d contain each other: %+v %+v", i-1, i, a, b)
		}
	}
	if buf[1].High != 11 || buf[1].Low != 9.8 {
		t.Errorf("expected up-merge to keep the higher low, got %v/%v", buf[1].High, buf[1].Low)
	}
}

func TestCheckFractal(t *testing.T) {
	tests := []struct {
		name   string
		k1     model.MergedBar
		k2     model.MergedBar
		k3     model.MergedBar
		found  bool
		mark   model.Mark
		high   float64
		low    float64
		strong bool
	}{
		{"top overlap", merged(0, 11, 9.5), merged(1, 11.5, 10.5), merged(2, 11.2, 10), true, model.MarkTop, 11.5, 9.5, false},
		{"top gap", merged(0, 10.5, 9.5), merged(1, 11.5, 10.5), merged(2, 11, 10.8), true, model.MarkTop, 11.5, 10.5, false},
		{"bottom overlap", merged(0, 7, 6), merged(1, 6.5, 5.5), merged(2, 7.5, 6.2), true, model.MarkBottom, 7, 5.5, true},
		{"bottom gap", merged(0, 7.5, 6.5), merged(1, 6.5, 5.5), merged(2, 7, 6), true, model.MarkBottom, 6.5, 5.5, false},
		{"none", merged(0, 1, 0), merged(1, 2, 1), merged(2, 3, 2), false, "", 0, 0, false},
	}
	for _, tt := range tests {
		fx, ok := CheckFractal(tt.k1, tt.k2, tt.k3)
		if ok != tt.found {
			t.Errorf("%s: expected found=%v, got %v", tt.name, tt.found, ok)
			continue
		}
		if !ok {
			continue
		}
		if fx.Mark != tt.mark || fx.High != tt.high || fx.Low != tt.low {
			t.Errorf("%s: got mark=%s high=%v low=%v", tt.name, fx.Mark, fx.High, fx.Low)
		}
		if (fx.Power == model.PowerStrong) != tt.strong {
			t.Errorf("%s: expected strong=%v, got %s", tt.name, tt.strong, fx.Power)
		}
		if !fx.Time.Equal(tt.k2.Time) {
			t.Errorf("%s: fractal time should be the centre bar", tt.name)
		}
	}
}

func TestCheckFractal_StrongTop(t *testing.T) {
	k3 := merged(2, 9.5, 8.5)
	k3.Close = 9
	fx, ok := CheckFractal(merged(0, 10.5, 9.5), merged(1, 11.5, 10.5), k3)
	if !ok || fx.Mark != model.MarkTop {
		t.Fatalf("expected top fractal, got %+v", fx)
	}
	if fx.Power != model.PowerStrong {
		t.Errorf("expected strong top, got %s", fx.Power)
	}
}

func TestFindFractals_VShape(t *testing.T) {
	buf := mergeCloses(10, 9, 8, 7, 6, 7, 8, 9, 10)
	if len(buf) != 9 {
		t.Fatalf("expected 9 merged bars, got %d", len(buf))
	}
	fxs := FindFractals(buf)
	if len(fxs) != 1 {
		t.Fatalf("expected exactly one fractal, got %d", len(fxs))
	}
	if fxs[0].Mark != model.MarkBottom || !fxs[0].Time.Equal(buf[4].Time) {
		t.Errorf("expected bottom at trough, got %s at %v", fxs[0].Mark, fxs[0].Time)
	}
	for _, fx := range fxs {
		k1, k2, k3 := fx.Elements[0], fx.Elements[1], fx.Elements[2]
		if !(k2.Low < k1.Low && k2.Low < k3.Low) {
			t.Errorf("fractal is not a strict local low: %+v", fx)
		}
	}

	if s, rest := CheckStroke(buf); s != nil || len(rest) != len(buf) {
		t.Errorf("expected no stroke from a single fractal")
	}
}

func TestCheckStroke_UpStroke(t *testing.T) {
	// trough at index 4, peak at index 10
	buf := mergeCloses(10, 9, 8, 7, 6, 7, 8, 9, 10, 11, 12, 11, 10, 9)
	s, rest := CheckStroke(buf)
	if s == nil {
		t.Fatal("expected a stroke")
	}
	if s.Direction != model.DirectionUp {
		t.Errorf("expected up stroke, got %s", s.Direction)
	}
	if !s.FxA.Time.Equal(buf[4].Time) || !s.FxB.Time.Equal(buf[10].Time) {
		t.Errorf("unexpected fractals: %v -> %v", s.FxA.Time, s.FxB.Time)
	}
	if s.Length != 9 || len(s.Bars) != 9 {
		t.Errorf("expected length 9, got %d", s.Length)
	}
	if s.Power != 7 {
		t.Errorf("expected power 7, got %v", s.Power)
	}
	if s.High != 12.5 || s.Low != 5.5 {
		t.Errorf("expected envelope 12.5/5.5, got %v/%v", s.High, s.Low)
	}
	if s.Change != 1.2727 {
		t.Errorf("expected change 1.2727, got %v", s.Change)
	}
	if len(rest) != 5 || !rest[0].Time.Equal(buf[9].Time) {
		t.Errorf("expected remainder to start at the peak fractal's first bar, got %d bars", len(rest))
	}
}

func TestCheckStroke_RejectsShortStroke(t *testing.T) {
	buf := mergeCloses(3, 2, 1, 2, 3, 2)
	s, rest := CheckStroke(buf)
	if s != nil {
		t.Fatalf("expected rejection, got %+v", s)
	}
	if len(rest) != len(buf) {
		t.Errorf("rejected window should come back unchanged")
	}
}

func TestCheckStroke_PowerRule(t *testing.T) {
	buf := mergeCloses(3, 2, 1, 5, 9, 5)
	s, _ := CheckStroke(buf)
	if s == nil {
		t.Fatal("expected a five-bar stroke accepted on power")
	}
	if s.Length != 5 {
		t.Errorf("expected length 5, got %d", s.Length)
	}
	if s.Power != 9 || s.Change != 18 {
		t.Errorf("expected power 9 change 18, got %v/%v", s.Power, s.Change)
	}
}

func TestCheckStroke_DownPicksLowestLaterBottom(t *testing.T) {
	// top at 2, bottoms at 8 and 12 with the same low; the later one wins
	buf := mergeCloses(8, 9, 10, 9, 8, 7, 6, 5, 4, 5, 6, 5, 4, 5, 6)
	s, _ := CheckStroke(buf)
	if s == nil {
		t.Fatal("expected a stroke")
	}
	if s.Direction != model.DirectionDown {
		t.Fatalf("expected down stroke, got %s", s.Direction)
	}
	if !s.FxB.Time.Equal(buf[12].Time) {
		t.Errorf("expected the later equal bottom, got %v", s.FxB.Time)
	}
}

func mkStroke(dir model.Direction, startMin, endMin int) *model.Stroke {
	return &model.Stroke{
		Direction: dir,
		FxA:       model.Fractal{Time: t0.Add(time.Duration(startMin) * time.Minute)},
		FxB:       model.Fractal{Time: t0.Add(time.Duration(endMin) * time.Minute)},
	}
}

func TestSubSpan(t *testing.T) {
	strokes := []*model.Stroke{
		mkStroke(model.DirectionUp, 0, 10),
		mkStroke(model.DirectionDown, 10, 20),
		mkStroke(model.DirectionUp, 20, 30),
		mkStroke(model.DirectionDown, 30, 40),
		mkStroke(model.DirectionUp, 40, 50),
	}
	at := func(m int) time.Time { return t0.Add(time.Duration(m) * time.Minute) }

	tests := []struct {
		name       string
		start, end int
		dir        model.Direction
		wantFirst  int
		wantLen    int
	}{
		{"straddling both ends", 5, 45, model.DirectionUp, 0, 5},
		{"trim leading down", 15, 35, model.DirectionUp, 2, 1},
		{"exact span", 20, 40, model.DirectionDown, 3, 1},
		{"down window", 5, 45, model.DirectionDown, 1, 3},
		{"outside", 60, 70, model.DirectionUp, 0, 0},
	}
	for _, tt := range tests {
		sub := SubSpan(strokes, at(tt.start), at(tt.end), tt.dir)
		if len(sub) != tt.wantLen {
			t.Errorf("%s: expected %d strokes, got %d", tt.name, tt.wantLen, len(sub))
			continue
		}
		if len(sub) == 0 {
			continue
		}
		if sub[0] != strokes[tt.wantFirst] {
			t.Errorf("%s: unexpected first stroke", tt.name)
		}
		if sub[0].Direction != tt.dir || sub[len(sub)-1].Direction != tt.dir {
			t.Errorf("%s: endpoints must match direction %s", tt.name, tt.dir)
		}
	}
}

func TestSubStrokes(t *testing.T) {
	lower := []*model.Stroke{
		mkStroke(model.DirectionDown, 0, 5),
		mkStroke(model.DirectionUp, 5, 12),
		mkStroke(model.DirectionDown, 12, 18),
		mkStroke(model.DirectionUp, 18, 30),
		mkStroke(model.DirectionDown, 30, 35),
	}
	parent := mkStroke(model.DirectionUp, 5, 30)
	sub := SubStrokes(lower, parent)
	if len(sub) != 3 {
		t.Fatalf("expected 3 sub strokes, got %d", len(sub))
	}
	if sub[0] != lower[1] || sub[2] != lower[3] {
		t.Errorf("unexpected sub span")
	}

	if got := SubStrokes(lower[:1], parent); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}
