package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
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

func (f *VsTraderFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), days)
	return f.fetchBars(ctx, endpoint)
}

func (f *VsTraderFetcher) FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]model.OHLCV, error) {
	// Try weekly endpoint first; if API only provides daily, aggregate internally.
	endpoint := fmt.Sprintf("%s/api/v1/bars/weekly?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), weeks)
	bars, err := f.fetchBars(ctx, endpoint)
	if err != nil {
		// Fallback: fetch enough daily bars and aggregate to weekly
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).WithField("symbol", symbol).Warn("vstrader weekly endpoint failed, aggregating daily bars")
		dailyBars, dailyErr := f.FetchDailyBars(ctx, symbol, weeks*5)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		weekly := aggregateDailyToWeekly(dailyBars)
		if len(weekly) > weeks {
			weekly = weekly[len(weekly)-weeks:]
		}
		return weekly, nil
	}
	return bars, nil
}

func (f *VsTraderFetcher) fetchBars(ctx context.Context, endpoint string) ([]model.OHLCV, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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
	bars := make([]model.OHLCV, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.OHLCV{
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

// aggregateDailyToWeekly converts daily bars into weekly bars (Mon-Fri).
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.OHLCV
	var week model.OHLCV
	var weekStarted bool

	for _, d := range daily {
		year, isoWeek := d.Time.ISOWeek()
		weekKey := year*100 + isoWeek

		if !weekStarted {
			week = model.OHLCV{Time: d.Time, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Volume: d.Volume}
			weekStarted = true
			continue
		}

		cy, cw := week.Time.ISOWeek()
		currentKey := cy*100 + cw

		if weekKey != currentKey {
			weekly = append(weekly, week)
			week = model.OHLCV{Time: d.Time, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Volume: d.Volume}
		} else {
			if d.High > week.High {
				week.High = d.High
			}
			if d.Low < week.Low {
				week.Low = d.Low
			}
			week.Close = d.Close
			week.Volume += d.Volume
		}
	}
	if weekStarted {
		weekly = append(weekly, week)
	}
	return weekly
}
