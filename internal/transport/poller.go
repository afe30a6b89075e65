package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultPollInterval matches the dock's publish cadence.
const DefaultPollInterval = time.Second

// Poller fetches the published snapshot file on a fixed interval
type Poller struct {
	URL      string
	Client   *http.Client
	Interval time.Duration
	now      func() time.Time
}

// NewPoller creates a poller for the snapshot at stateURL.
func NewPoller(stateURL string, interval time.Duration, httpClient *http.Client) (*Poller, error) {
	if _, err := url.Parse(stateURL); err != nil {
		return nil, fmt.Errorf("invalid state url %q: %w", stateURL, err)
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Poller{URL: stateURL, Client: httpClient, Interval: interval, now: time.Now}, nil
}

// Subscribe fetches immediately, then once per interval until ctx ends.
func (p *Poller) Subscribe(ctx context.Context, handler func(Delivery)) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		payload, err := p.Fetch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		handler(Delivery{Payload: payload, Err: err, Via: ViaPoll})

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Fetch performs one cache-busting GET of the snapshot.
func (p *Poller) Fetch(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(p.URL)
	if err != nil {
		return nil, err
	}
	query := u.Query()
	query.Set("t", strconv.FormatInt(p.now().UnixMilli(), 10))
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}
