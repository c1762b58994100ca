// Package ditto talks to an Eclipse Ditto backend over its HTTP API:
// GET for full thing state, PUT to a property sub-resource for writes.
package ditto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

const defaultTimeout = 5 * time.Second

// LatencyRecorder receives round-trip latencies of backend requests
type LatencyRecorder interface {
	RecordLatency(ms float64)
}

type Config struct {
	BaseURL  string
	ThingID  string
	Username string
	Password string
	Timeout  time.Duration
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.BaseURL == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "backend base URL must not be empty")
	}
	if c.ThingID == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "thing identifier must not be empty")
	}

	return nil
}

// Client issues authenticated requests against one twin thing
type Client struct {
	cfg     Config
	http    *http.Client
	latency LatencyRecorder
}

// NewClient builds a client for the configured thing. latency may be nil
// when no metrics collection is wanted.
func NewClient(cfg Config, latency LatencyRecorder) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		latency: latency,
	}, nil
}

// FetchState retrieves the full twin state. Any network or HTTP error is
// logged and yields a nil state: callers must treat nil as "skip this
// cycle", never as an empty valid state.
func (c *Client) FetchState(ctx context.Context) *twin.State {
	req, err := c.newRequest(ctx, http.MethodGet, c.thingURL(), nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to build state request")
		return nil
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("Twin state fetch failed")
		return nil
	}
	defer resp.Body.Close()

	c.recordLatency(start)

	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode).Msg("Twin state fetch returned non-OK status")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read twin state body")
		return nil
	}

	state, err := twin.Decode(body)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to decode twin state")
		return nil
	}

	return state
}

// WriteProperty PUTs the JSON-encoded value to the property sub-resource.
// Success requires HTTP 204; the round-trip latency is reported either way.
func (c *Client) WriteProperty(ctx context.Context, featureID, property string, value any) error {
	errFactory := errors.New()

	payload, err := json.Marshal(value)
	if err != nil {
		return errFactory.Wrap(errors.ErrWriteProperty, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.propertyURL(featureID, property), bytes.NewReader(payload))
	if err != nil {
		return errFactory.Wrap(errors.ErrWriteProperty, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errFactory.Wrap(errors.ErrWriteProperty, err)
	}
	defer resp.Body.Close()

	c.recordLatency(start)

	if resp.StatusCode != http.StatusNoContent {
		return errFactory.WithData(errors.ErrUnexpectedState, struct {
			Feature  string
			Property string
			Status   int
		}{
			Feature:  featureID,
			Property: property,
			Status:   resp.StatusCode,
		})
	}

	logger.Debug().
		Str("feature", featureID).
		Str("property", property).
		Interface("value", value).
		Msg("Twin property updated")

	return nil
}

// EnsureThing creates the thing with the given seed state when the
// backend does not know it yet
func (c *Client) EnsureThing(ctx context.Context, seed *twin.State) error {
	errFactory := errors.New()

	req, err := c.newRequest(ctx, http.MethodGet, c.thingURL(), nil)
	if err != nil {
		return errFactory.Wrap(errors.ErrFetchState, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errFactory.Wrap(errors.ErrFetchState, err)
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		logger.Debug().Str("thing", c.cfg.ThingID).Msg("Thing already exists")
		return nil
	case http.StatusNotFound:
		return c.createThing(ctx, seed)
	default:
		return errFactory.WithData(errors.ErrUnexpectedState, resp.StatusCode)
	}
}

func (c *Client) createThing(ctx context.Context, seed *twin.State) error {
	errFactory := errors.New()

	payload, err := json.Marshal(seed)
	if err != nil {
		return errFactory.Wrap(errors.ErrWriteProperty, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.thingURL(), bytes.NewReader(payload))
	if err != nil {
		return errFactory.Wrap(errors.ErrWriteProperty, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errFactory.Wrap(errors.ErrWriteProperty, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return errFactory.WithData(errors.ErrUnexpectedState, resp.StatusCode)
	}

	logger.Info().Str("thing", c.cfg.ThingID).Msg("Created twin thing")

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func (c *Client) thingURL() string {
	return fmt.Sprintf("%s/api/2/things/%s", c.cfg.BaseURL, url.PathEscape(c.cfg.ThingID))
}

func (c *Client) propertyURL(featureID, property string) string {
	return fmt.Sprintf("%s/features/%s/properties/%s",
		c.thingURL(), url.PathEscape(featureID), url.PathEscape(property))
}

func (c *Client) recordLatency(start time.Time) {
	if c.latency == nil {
		return
	}

	c.latency.RecordLatency(float64(time.Since(start).Microseconds()) / 1000)
}
