package fred

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"geofrag/internal/model"
)

const (
	defaultBaseURL          = "https://api.stlouisfed.org/fred/series/observations"
	defaultObservationStart = "2020-01-01"
	defaultTimeoutSeconds   = 30
	defaultUserAgent        = "geofrag/0.1"
)

// ErrMissingAPIKey marks the documented skip when no credential is
// configured. The caller records a skipped source, not a failed one.
var ErrMissingAPIKey = errors.New("fred: api key is not set")

// series lists the policy-uncertainty indices, keyed in the output by ID.
var series = []struct {
	ID    string
	Label string
}{
	{"GEPUCURRENT", "Global Economic Policy Uncertainty"},
	{"USEPUINDXD", "US Economic Policy Uncertainty"},
}

type Config struct {
	BaseURL          string
	APIKey           string
	ObservationStart string
	Timeout          time.Duration
	UserAgent        string
}

type Client struct {
	config Config
	client *http.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) (*Client, error) {
	return NewWithConfig(ConfigFromEnv(), log)
}

func NewWithConfig(cfg Config, log *logrus.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("fred: base url is required")
	}
	if strings.TrimSpace(cfg.ObservationStart) == "" {
		cfg.ObservationStart = defaultObservationStart
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}, nil
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:          getenv("FRED_BASE_URL", defaultBaseURL),
		APIKey:           strings.TrimSpace(os.Getenv("FRED_API_KEY")),
		ObservationStart: getenv("FRED_OBSERVATION_START", defaultObservationStart),
		Timeout:          time.Duration(getenvInt("FRED_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		UserAgent:        getenv("FRED_USER_AGENT", defaultUserAgent),
	}
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.client.Timeout = timeout
	}
}

// Fetch retrieves the raw observation payload for every uncertainty series.
// Without an API key it returns ErrMissingAPIKey before any request is made.
// A non-2xx answer drops that series only; transport failures and malformed
// bodies degrade the whole fetch.
func (c *Client) Fetch(ctx context.Context) (model.UncertaintySet, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	set := make(model.UncertaintySet, len(series))
	for _, s := range series {
		params := url.Values{}
		params.Set("series_id", s.ID)
		params.Set("api_key", c.config.APIKey)
		params.Set("file_type", "json")
		params.Set("observation_start", c.config.ObservationStart)

		body, status, err := c.get(ctx, params)
		if err != nil {
			return nil, err
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			c.log.WithField("series", s.Label).Warnf("fred: request returned %d", status)
			continue
		}

		payload := make(map[string]any)
		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			return nil, fmt.Errorf("fred: decode %s: %w", s.ID, err)
		}
		set[s.ID] = payload
	}

	return set, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, int, error) {
	endpoint := c.config.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fred: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("fred: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
