package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"CrudeSentinel/internal/model"
)

const (
	cftcLegacyURL     = "https://publicreporting.cftc.gov/resource/6dca-aqww.json"
	cftcDateField     = "report_date_as_yyyy_mm_dd"
	cftcMarketField   = "market_and_exchange_names"
	DefaultCOTMarket  = "CRUDE OIL, LIGHT SWEET"
	defaultLongField  = "noncomm_positions_long_all"
	defaultShortField = "noncomm_positions_short_all"
)

// CFTCFetcher reads weekly Commitments of Traders reports from the CFTC
// public reporting (Socrata) endpoint. Net positioning is non-commercial
// longs minus shorts unless other fields are configured.
type CFTCFetcher struct {
	BaseURL    string
	LongField  string
	ShortField string
	Client     *http.Client
}

func NewCFTCFetcher(proxyURL string) *CFTCFetcher {
	return &CFTCFetcher{
		BaseURL:    cftcLegacyURL,
		LongField:  defaultLongField,
		ShortField: defaultShortField,
		Client:     newHTTPClient(proxyURL),
	}
}

func (f *CFTCFetcher) Name() string { return "cftc" }

// FetchPositioning returns up to limit reports for markets whose name
// contains market, oldest first. Every failure wraps ErrAuxiliaryUnavailable.
func (f *CFTCFetcher) FetchPositioning(ctx context.Context, market string, limit int) ([]model.PositioningReport, error) {
	if limit <= 0 {
		limit = 52
	}
	q := url.Values{}
	q.Set("$where", fmt.Sprintf("%s like '%%%s%%'", cftcMarketField, strings.ReplaceAll(market, "'", "''")))
	q.Set("$order", cftcDateField+" DESC")
	q.Set("$limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAuxiliaryUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: cftc fetch: %v", model.ErrAuxiliaryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: cftc status %d: %s", model.ErrAuxiliaryUnavailable, resp.StatusCode, string(body))
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: cftc decode: %v", model.ErrAuxiliaryUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: cftc returned no reports for %q", model.ErrAuxiliaryUnavailable, market)
	}

	reports := make([]model.PositioningReport, 0, len(rows))
	for _, row := range rows {
		rep, err := f.parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrAuxiliaryUnavailable, err)
		}
		reports = append(reports, rep)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ReportDate.Before(reports[j].ReportDate) })
	return reports, nil
}

func (f *CFTCFetcher) parseRow(row map[string]any) (model.PositioningReport, error) {
	var rep model.PositioningReport
	rep.Market, _ = row[cftcMarketField].(string)

	rawDate, _ := row[cftcDateField].(string)
	date, err := parseCFTCDate(rawDate)
	if err != nil {
		return rep, err
	}
	rep.ReportDate = date

	if rep.Long, err = numberField(row, f.LongField); err != nil {
		return rep, err
	}
	if rep.Short, err = numberField(row, f.ShortField); err != nil {
		return rep, err
	}
	return rep, nil
}

func parseCFTCDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05.000", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cftc: bad report date %q", s)
}

// numberField accepts both quoted and bare numbers; Socrata quotes them.
func numberField(row map[string]any, field string) (float64, error) {
	switch v := row[field].(type) {
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cftc: field %s: %v", field, err)
		}
		return n, nil
	case float64:
		return v, nil
	case nil:
		return 0, fmt.Errorf("cftc: field %s missing", field)
	default:
		return 0, fmt.Errorf("cftc: field %s has type %T", field, v)
	}
}
