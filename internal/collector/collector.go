package collector

import (
	"fmt"
	"log"
	"time"

	"StrokeSentinel/internal/model"
)

// MockFetcher returns a deterministic zigzag series for development and testing.
type MockFetcher struct {
	Price float64
	// End is the time of the newest bar; zero means now.
	End time.Time
	// Bars overrides the generated series per timeframe.
	Bars map[string][]model.RawBar
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(symbol, freq string, limit int) ([]model.RawBar, error) {
	if bars, ok := m.Bars[freq]; ok {
		return bars, nil
	}
	step, err := FreqDuration(freq)
	if err != nil {
		return nil, err
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().Truncate(step)
	}
	return generateMockBars(symbol, m.Price, end, step, limit), nil
}

// generateMockBars swings ±8% around basePrice with a 16 bar period.
func generateMockBars(symbol string, basePrice float64, end time.Time, step time.Duration, count int) []model.RawBar {
	bars := make([]model.RawBar, count)
	for i := 0; i < count; i++ {
		phase := i % 16
		if phase > 8 {
			phase = 16 - phase
		}
		p := basePrice * (1 + float64(phase-4)*0.02)
		bars[i] = model.RawBar{
			Symbol: symbol,
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches bars for one symbol and cleans them up for the engines.
type Collector struct {
	Fetcher     Fetcher
	Symbol      string
	HistoryBars int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, historyBars int) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol, HistoryBars: historyBars}
}

// Collect fetches the latest bars for freq. Bars are stamped with the collector's
// symbol, and bars that do not advance in time are dropped.
func (c *Collector) Collect(freq string) ([]model.RawBar, error) {
	bars, err := c.Fetcher.FetchBars(c.Symbol, freq, c.HistoryBars)
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars: %w", freq, err)
	}

	out := make([]model.RawBar, 0, len(bars))
	dropped := 0
	for _, b := range bars {
		if n := len(out); n > 0 && !b.Time.After(out[n-1].Time) {
			dropped++
			continue
		}
		b.Symbol = c.Symbol
		out = append(out, b)
	}
	if dropped > 0 {
		log.Printf("[WARN] %s %s: dropped %d out-of-order bars", c.Symbol, freq, dropped)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fetch %s bars: no data returned", freq)
	}
	return out, nil
}
