// Package spaceweather fetches the NOAA SWPC planetary K-index so
// reports can carry current geomagnetic context.
//
// The fetch is best effort. Every failure wraps ErrUnavailable, and
// callers degrade to a report without the annotation rather than fail
// the analysis.
package spaceweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultBaseURL is the NOAA Space Weather Prediction Center feed root.
const DefaultBaseURL = "https://services.swpc.noaa.gov"

const kpPath = "/json/planetary_k_index_1m.json"

// ErrUnavailable reports that the feed could not be reached, returned a
// bad status, or could not be decoded.
var ErrUnavailable = errors.New("space weather feed unavailable")

// Indices is the most recent geomagnetic reading.
type Indices struct {
	KIndex      int
	EstimatedKp float64
	Observed    time.Time
	FetchedAt   time.Time
	Source      string
}

// Condition maps the K-index onto the conventional activity scale.
func (i Indices) Condition() string {
	switch {
	case i.KIndex < 4:
		return "quiet"
	case i.KIndex == 4:
		return "active"
	default:
		return "storm"
	}
}

// Annotation renders the one-line figure note.
func (i Indices) Annotation() string {
	return fmt.Sprintf("Planetary K-index %d (%s, est. Kp %.2f) observed %s UTC",
		i.KIndex, i.Condition(), i.EstimatedKp,
		i.Observed.UTC().Format("2006-01-02 15:04"))
}

// Client reads the SWPC planetary K-index feed.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	clock   clockwork.Clock
}

// NewClient creates a feed client. An empty base URL selects the NOAA
// endpoint, a nil HTTP client gets a 10 second timeout, and a nil
// logger or clock falls back to the defaults.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, clock clockwork.Clock) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logger, clock: clock}
}

// kpRow mirrors one element of the planetary_k_index_1m feed.
type kpRow struct {
	TimeTag     string  `json:"time_tag"`
	KpIndex     int     `json:"kp_index"`
	EstimatedKp float64 `json:"estimated_kp"`
}

// Fetch performs the single outbound read of a batch run and returns
// the latest reading. No retries; the caller decides how to degrade.
func (c *Client) Fetch(ctx context.Context) (*Indices, error) {
	url := c.baseURL + kpPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("space weather fetch failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("space weather feed returned error status",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var rows []kpRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty feed", ErrUnavailable)
	}

	// The feed is chronological; the last row is current.
	last := rows[len(rows)-1]
	observed, err := time.Parse("2006-01-02T15:04:05", last.TimeTag)
	if err != nil {
		return nil, fmt.Errorf("%w: time tag %q", ErrUnavailable, last.TimeTag)
	}

	idx := &Indices{
		KIndex:      last.KpIndex,
		EstimatedKp: last.EstimatedKp,
		Observed:    observed.UTC(),
		FetchedAt:   c.clock.Now().UTC(),
		Source:      "NOAA SWPC",
	}
	c.logger.Info("space weather fetched",
		slog.Int("k_index", idx.KIndex),
		slog.Float64("estimated_kp", idx.EstimatedKp),
		slog.String("condition", idx.Condition()))
	return idx, nil
}
