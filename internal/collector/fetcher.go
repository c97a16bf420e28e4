package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"StrokeSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns up to limit bars for the timeframe freq, oldest first.
	// The last bar may still be forming.
	FetchBars(symbol, freq string, limit int) ([]model.RawBar, error)
	Name() string
}

// FreqDuration parses a timeframe label such as "5m", "60m" or "1d".
func FreqDuration(freq string) (time.Duration, error) {
	if len(freq) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", freq)
	}
	n, err := strconv.Atoi(freq[:len(freq)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", freq)
	}
	switch strings.ToLower(freq[len(freq)-1:]) {
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe %q", freq)
	}
}
