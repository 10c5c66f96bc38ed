package worldbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"geofrag/internal/model"
)

const (
	defaultBaseURL         = "https://api.worldbank.org/v2/"
	defaultPerPageAll      = 500
	defaultPerPageCountry  = 100
	defaultDateRangeAll    = "2019:2024"
	defaultDateRangeFDI    = "2015:2024"
	defaultTimeoutSeconds  = 30
	defaultUserAgent       = "geofrag/0.1"
	defaultRateLimitPerSec = 5
	defaultRateLimitBurst  = 5

	fdiGDPIndicatorID = "BX.KLT.DINV.WD.GD.ZS"
)

// indicators maps the short names used in the output files to World Bank
// indicator IDs, fetched for all countries at once.
var indicators = []struct {
	Name string
	ID   string
}{
	{"trade_gdp_ratio", "NE.TRD.GNFS.ZS"},
	{"fdi_inflows", "BX.KLT.DINV.CD.WD"},
	{"fdi_gdp_ratio", fdiGDPIndicatorID},
	{"exports", "NE.EXP.GNFS.CD"},
}

// fdiCountries pairs the ISO3 codes keying the FDI/GDP slice with the
// two-letter codes the API expects. EUU/EU is the European Union aggregate.
var fdiCountries = []struct {
	ISO3      string
	QueryCode string
}{
	{"USA", "US"},
	{"CHN", "CN"},
	{"EUU", "EU"},
}

type Config struct {
	BaseURL         string
	PerPageAll      int
	PerPageCountry  int
	DateRangeAll    string
	DateRangeFDI    string
	Timeout         time.Duration
	UserAgent       string
	RateLimitPerSec int
	RateLimitBurst  int
}

// Bundle is everything one World Bank run yields: the per-indicator
// observation lists plus the FDI/GDP country slice written to its own file.
type Bundle struct {
	Indicators model.IndicatorSet
	FDIGDP     model.FDIGDPSlice
}

type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	log     *logrus.Logger
}

func New(log *logrus.Logger) (*Client, error) {
	return NewWithConfig(ConfigFromEnv(), log)
}

func NewWithConfig(cfg Config, log *logrus.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("worldbank: base url is required")
	}
	if cfg.PerPageAll <= 0 {
		cfg.PerPageAll = defaultPerPageAll
	}
	if cfg.PerPageCountry <= 0 {
		cfg.PerPageCountry = defaultPerPageCountry
	}
	if strings.TrimSpace(cfg.DateRangeAll) == "" {
		cfg.DateRangeAll = defaultDateRangeAll
	}
	if strings.TrimSpace(cfg.DateRangeFDI) == "" {
		cfg.DateRangeFDI = defaultDateRangeFDI
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

	var limiter *rate.Limiter
	if cfg.RateLimitPerSec > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), burst)
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		log:     log,
	}, nil
}

func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:      getenv("WORLDBANK_BASE_URL", defaultBaseURL),
		DateRangeAll: getenv("WORLDBANK_DATE_RANGE", defaultDateRangeAll),
		DateRangeFDI: getenv("WORLDBANK_FDI_DATE_RANGE", defaultDateRangeFDI),
		UserAgent:    getenv("WORLDBANK_USER_AGENT", defaultUserAgent),
	}
	cfg.PerPageAll = getenvInt("WORLDBANK_PER_PAGE_ALL", defaultPerPageAll)
	cfg.PerPageCountry = getenvInt("WORLDBANK_PER_PAGE_COUNTRY", defaultPerPageCountry)
	cfg.Timeout = time.Duration(getenvInt("WORLDBANK_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second
	cfg.RateLimitPerSec = getenvInt("WORLDBANK_RATE_LIMIT_PER_SEC", defaultRateLimitPerSec)
	cfg.RateLimitBurst = getenvInt("WORLDBANK_RATE_LIMIT_BURST", defaultRateLimitBurst)
	return cfg
}

// SetTimeout overrides the request timeout on an already-built client.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.client.Timeout = timeout
	}
}

// Fetch retrieves the FDI/GDP slice for the major economies and the filtered
// observation lists for every named indicator. A non-2xx answer skips only
// the request that received it; transport failures and malformed bodies
// degrade the whole fetch, and the caller substitutes empty data.
func (c *Client) Fetch(ctx context.Context) (*Bundle, error) {
	bundle := &Bundle{
		Indicators: make(model.IndicatorSet, len(indicators)),
		FDIGDP:     EmptyFDIGDP(),
	}

	for _, country := range fdiCountries {
		path := fmt.Sprintf("country/%s/indicator/%s",
			url.PathEscape(country.QueryCode), url.PathEscape(fdiGDPIndicatorID))
		params := url.Values{}
		params.Set("format", "json")
		params.Set("per_page", strconv.Itoa(c.config.PerPageCountry))
		params.Set("date", c.config.DateRangeFDI)

		body, status, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			c.log.WithField("country", country.ISO3).Warnf("worldbank: fdi request returned %d", status)
			continue
		}
		observations, ok, err := decodeObservations(body)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		values := make(map[string]float64)
		for _, observation := range observations {
			// Zero values are treated as missing, same as nulls.
			if observation.Value == nil || *observation.Value == 0 {
				continue
			}
			values[observation.Date] = round2(*observation.Value)
		}
		bundle.FDIGDP.Data[country.ISO3] = model.CountrySeries{
			CountryCode: country.ISO3,
			CountryName: country.QueryCode,
			Values:      values,
		}
	}

	for _, indicator := range indicators {
		path := fmt.Sprintf("country/all/indicator/%s", url.PathEscape(indicator.ID))
		params := url.Values{}
		params.Set("format", "json")
		params.Set("per_page", strconv.Itoa(c.config.PerPageAll))
		params.Set("date", c.config.DateRangeAll)

		body, status, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			c.log.WithField("indicator", indicator.Name).Warnf("worldbank: indicator request returned %d", status)
			continue
		}
		observations, ok, err := decodeObservations(body)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		kept := make([]model.Observation, 0, len(observations))
		for _, observation := range observations {
			if observation.Value == nil || *observation.Value == 0 {
				continue
			}
			kept = append(kept, observation)
		}
		bundle.Indicators[indicator.Name] = kept
	}

	return bundle, nil
}

// EmptyFDIGDP returns the FDI/GDP slice skeleton: fixed metadata, no country
// data. The aggregator writes it when the fetch degrades so the side file
// always exists.
func EmptyFDIGDP() model.FDIGDPSlice {
	return model.FDIGDPSlice{
		Metadata: model.FDIGDPMetadata{
			Source:      "World Bank",
			Indicator:   fdiGDPIndicatorID,
			Description: "Foreign direct investment, net inflows (% of GDP)",
		},
		Data: make(map[string]model.CountrySeries),
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	endpoint := c.buildURL(path, params)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

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
		return nil, 0, fmt.Errorf("worldbank: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("worldbank: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) buildURL(path string, params url.Values) string {
	base := strings.TrimRight(c.config.BaseURL, "/")
	endpoint := base + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

// decodeObservations splits the two-element World Bank response (metadata
// envelope, observation list). A shorter envelope means no data for the
// request and is not an error.
func decodeObservations(body []byte) ([]model.Observation, bool, error) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false, fmt.Errorf("worldbank: decode envelope: %w", err)
	}
	if len(envelope) < 2 {
		return nil, false, nil
	}

	var observations []model.Observation
	if err := json.Unmarshal(envelope[1], &observations); err != nil {
		return nil, false, fmt.Errorf("worldbank: decode observations: %w", err)
	}
	return observations, true, nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
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
