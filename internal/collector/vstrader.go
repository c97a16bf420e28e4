package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"StrokeSentinel/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *VsTraderFetcher) FetchBars(symbol, freq string, limit int) ([]model.RawBar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&interval=%s&limit=%d",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(freq), limit)
	bars, err := f.fetchBars(symbol, endpoint)
	if err == nil || freq == "1m" {
		return bars, err
	}

	// Fallback: fetch minute bars and aggregate them to freq
	step, stepErr := FreqDuration(freq)
	if stepErr != nil {
		return nil, fmt.Errorf("%s fetch failed: %w", freq, err)
	}
	perBar := int(step / time.Minute)
	minuteEndpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&interval=1m&limit=%d",
		f.BaseURL, url.QueryEscape(symbol), limit*perBar)
	minuteBars, minuteErr := f.fetchBars(symbol, minuteEndpoint)
	if minuteErr != nil {
		return nil, fmt.Errorf("%s fetch failed: %w; 1m fallback also failed: %w", freq, err, minuteErr)
	}
	agg := aggregateBars(minuteBars, step)
	if len(agg) > limit {
		agg = agg[len(agg)-limit:]
	}
	return agg, nil
}

func (f *VsTraderFetcher) fetchBars(symbol, endpoint string) ([]model.RawBar, error) {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var vsBars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&vsBars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.RawBar, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.RawBar{
			Symbol: symbol,
			Time:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// aggregateBars folds fine bars into buckets of length step. Each bucket is stamped
// with its start time.
func aggregateBars(fine []model.RawBar, step time.Duration) []model.RawBar {
	if len(fine) == 0 {
		return nil
	}
	var out []model.RawBar
	var cur model.RawBar
	var started bool

	for _, b := range fine {
		key := b.Time.Truncate(step)

		if !started || !key.Equal(cur.Time) {
			if started {
				out = append(out, cur)
			}
			cur = model.RawBar{Symbol: b.Symbol, Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if started {
		out = append(out, cur)
	}
	return out
}
