package nws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/feed"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
)

const (
	acceptGeoJSON = "application/geo+json"
	acceptAtom    = "application/atom+xml"

	maxBodySize = 16 << 20
)

// Fetcher polls the NWS alert feed and decodes the current active alert set.
// When the configured feed URL points at the api.weather.gov Atom rendition
// it is rewritten to the JSON API endpoint, matching how the service has
// always preferred the richer GeoJSON payload; any other URL is treated as a
// CAP Atom document.
type Fetcher struct {
	client      *http.Client
	endpoint    string
	decoderName string
	accept      string
	userAgent   string
	registry    *feed.Registry
	maxRetries  uint64
	logger      *slog.Logger
}

var _ ports.AlertSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 20s timeout default.
func NewFetcher(client *http.Client, feedURL, userAgent string, registry *feed.Registry, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	endpoint, decoderName, accept := resolveEndpoint(feedURL)
	return &Fetcher{
		client:      client,
		endpoint:    endpoint,
		decoderName: decoderName,
		accept:      accept,
		userAgent:   userAgent,
		registry:    registry,
		maxRetries:  2,
		logger:      log,
	}
}

// resolveEndpoint picks the JSON API when the URL allows it and falls back
// to Atom parsing otherwise.
func resolveEndpoint(feedURL string) (endpoint, decoderName, accept string) {
	if strings.Contains(feedURL, "api.weather.gov/alerts") {
		return strings.Replace(feedURL, ".atom", "", 1), "geojson", acceptGeoJSON
	}
	return feedURL, "atom", acceptAtom
}

// FetchActive downloads the feed and returns every active alert it carries.
// Transient HTTP failures are retried a bounded number of times inside this
// call; an exhausted retry budget surfaces as a single fetch error to the
// caller, which waits for the next scheduled cycle.
func (f *Fetcher) FetchActive(ctx context.Context) ([]domain.Alert, error) {
	decoder, err := f.registry.Resolve(f.decoderName)
	if err != nil {
		return nil, fmt.Errorf("resolve decoder: %w", err)
	}

	var body []byte
	fetch := func() error {
		payload, fetchErr := f.download(ctx)
		if fetchErr != nil {
			f.debug("feed download attempt failed", "error", fetchErr)
			return fetchErr
		}
		body = payload
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond
	expo.MaxInterval = 5 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, f.maxRetries), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return nil, fmt.Errorf("download feed %s: %w", f.endpoint, err)
	}

	alerts, err := decoder.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	f.debug("feed fetched", "endpoint", f.endpoint, "alerts", len(alerts))
	return alerts, nil
}

func (f *Fetcher) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", f.accept)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("feed returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	return body, nil
}

func (f *Fetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
