package worldbank_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"geofrag/internal/sources/worldbank"
)

const fdiIndicator = "BX.KLT.DINV.WD.GD.ZS"

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(t *testing.T, baseURL string) *worldbank.Client {
	t.Helper()
	client, err := worldbank.NewWithConfig(worldbank.Config{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, quietLogger())
	require.NoError(t, err)
	return client
}

// observationBody builds the two-element World Bank envelope around the given
// observation list JSON.
func observationBody(observations string) string {
	return `[{"page":1,"pages":1,"per_page":100,"total":3},` + observations + `]`
}

func TestFetchCollectsIndicatorsAndFDI(t *testing.T) {
	var mu sync.Mutex
	queries := make(map[string]string)

	bodies := map[string]string{
		"/country/US/indicator/" + fdiIndicator: observationBody(`[
			{"indicator":{"id":"` + fdiIndicator + `","value":"FDI net inflows"},"country":{"id":"US","value":"United States"},"countryiso3code":"USA","date":"2022","value":1.23456,"unit":"","obs_status":"","decimal":1},
			{"indicator":{"id":"` + fdiIndicator + `","value":"FDI net inflows"},"country":{"id":"US","value":"United States"},"countryiso3code":"USA","date":"2021","value":null,"unit":"","obs_status":"","decimal":1},
			{"indicator":{"id":"` + fdiIndicator + `","value":"FDI net inflows"},"country":{"id":"US","value":"United States"},"countryiso3code":"USA","date":"2020","value":0,"unit":"","obs_status":"","decimal":1}
		]`),
		"/country/CN/indicator/" + fdiIndicator: observationBody(`[
			{"indicator":{"id":"` + fdiIndicator + `","value":"FDI net inflows"},"country":{"id":"CN","value":"China"},"countryiso3code":"CHN","date":"2022","value":2.5,"unit":"","obs_status":"","decimal":1}
		]`),
		"/country/EU/indicator/" + fdiIndicator: observationBody(`[
			{"indicator":{"id":"` + fdiIndicator + `","value":"FDI net inflows"},"country":{"id":"EU","value":"European Union"},"countryiso3code":"EUU","date":"2022","value":3.999,"unit":"","obs_status":"","decimal":1}
		]`),
		"/country/all/indicator/NE.TRD.GNFS.ZS": observationBody(`[
			{"indicator":{"id":"NE.TRD.GNFS.ZS","value":"Trade (% of GDP)"},"country":{"id":"US","value":"United States"},"countryiso3code":"USA","date":"2022","value":27.4,"unit":"","obs_status":"","decimal":1},
			{"indicator":{"id":"NE.TRD.GNFS.ZS","value":"Trade (% of GDP)"},"country":{"id":"CN","value":"China"},"countryiso3code":"CHN","date":"2022","value":null,"unit":"","obs_status":"","decimal":1},
			{"indicator":{"id":"NE.TRD.GNFS.ZS","value":"Trade (% of GDP)"},"country":{"id":"DE","value":"Germany"},"countryiso3code":"DEU","date":"2022","value":0,"unit":"","obs_status":"","decimal":1}
		]`),
		"/country/all/indicator/BX.KLT.DINV.CD.WD": observationBody(`[]`),
		"/country/all/indicator/" + fdiIndicator:   observationBody(`[]`),
		"/country/all/indicator/NE.EXP.GNFS.CD":    observationBody(`[]`),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries[r.URL.Path] = r.URL.RawQuery
		mu.Unlock()

		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	bundle, err := client.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, bundle.FDIGDP.Data, 3)
	usa := bundle.FDIGDP.Data["USA"]
	require.Equal(t, "USA", usa.CountryCode)
	require.Equal(t, "US", usa.CountryName)
	require.Equal(t, map[string]float64{"2022": 1.23}, usa.Values)
	require.Equal(t, map[string]float64{"2022": 4.0}, bundle.FDIGDP.Data["EUU"].Values)

	require.Equal(t, "World Bank", bundle.FDIGDP.Metadata.Source)
	require.Equal(t, fdiIndicator, bundle.FDIGDP.Metadata.Indicator)

	require.Len(t, bundle.Indicators, 4)
	trade := bundle.Indicators["trade_gdp_ratio"]
	require.Len(t, trade, 1)
	require.Equal(t, "USA", trade[0].CountryISO3Code)
	require.NotNil(t, trade[0].Value)
	require.Equal(t, 27.4, *trade[0].Value)
	require.Empty(t, bundle.Indicators["exports"])

	fdiQuery := queries["/country/US/indicator/"+fdiIndicator]
	require.Contains(t, fdiQuery, "format=json")
	require.Contains(t, fdiQuery, "per_page=100")
	require.Contains(t, fdiQuery, "date=2015%3A2024")

	allQuery := queries["/country/all/indicator/NE.TRD.GNFS.ZS"]
	require.Contains(t, allQuery, "per_page=500")
	require.Contains(t, allQuery, "date=2019%3A2024")
}

func TestFetchSkipsRequestOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/country/CN/indicator/" + fdiIndicator:
			http.Error(w, "upstream down", http.StatusInternalServerError)
		case "/country/all/indicator/NE.EXP.GNFS.CD":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(observationBody(`[
				{"indicator":{"id":"X","value":"X"},"country":{"id":"US","value":"United States"},"countryiso3code":"USA","date":"2022","value":1.5,"unit":"","obs_status":"","decimal":1}
			]`)))
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	bundle, err := client.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, bundle.FDIGDP.Data, 2)
	require.NotContains(t, bundle.FDIGDP.Data, "CHN")
	require.NotContains(t, bundle.Indicators, "exports")
	require.Contains(t, bundle.Indicators, "trade_gdp_ratio")
}

func TestFetchSkipsShortEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"message":"no observations"}]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	bundle, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Empty(t, bundle.FDIGDP.Data)
	require.Empty(t, bundle.Indicators)
}

func TestFetchFailsOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>service unavailable</html>"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	bundle, err := client.Fetch(context.Background())
	require.Error(t, err)
	require.Nil(t, bundle)
}

func TestNewWithConfigRequiresBaseURL(t *testing.T) {
	_, err := worldbank.NewWithConfig(worldbank.Config{}, quietLogger())
	require.Error(t, err)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("WORLDBANK_BASE_URL", "http://localhost:9090/v2/")
	t.Setenv("WORLDBANK_PER_PAGE_ALL", "250")
	t.Setenv("WORLDBANK_TIMEOUT_SECONDS", "12")

	cfg := worldbank.ConfigFromEnv()
	require.Equal(t, "http://localhost:9090/v2/", cfg.BaseURL)
	require.Equal(t, 250, cfg.PerPageAll)
	require.Equal(t, 12*time.Second, cfg.Timeout)
	require.Equal(t, "2019:2024", cfg.DateRangeAll)
}
