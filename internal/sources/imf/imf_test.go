package imf_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"geofrag/internal/sources/imf"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(t *testing.T, baseURL string) *imf.Client {
	t.Helper()
	client, err := imf.NewWithConfig(imf.Config{BaseURL: baseURL}, quietLogger())
	require.NoError(t, err)
	return client
}

func TestFetchReturnsSharesOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/COFER", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values":{"COFER":{"US":{"2024":58.9}}}}`))
	}))
	defer srv.Close()

	shares, err := newTestClient(t, srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, imf.FallbackShares(), shares)
}

func TestFetchReturnsSharesWithoutValuesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	shares, err := newTestClient(t, srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, shares, 6)
}

func TestFetchFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	shares, err := newTestClient(t, srv.URL).Fetch(context.Background())
	require.Error(t, err)
	require.Nil(t, shares)
}

func TestFetchFailsOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>redirect</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Fetch(context.Background())
	require.Error(t, err)
}

func TestFallbackSharesIsFreshCopy(t *testing.T) {
	first := imf.FallbackShares()
	first["USD"] = 0

	second := imf.FallbackShares()
	require.Equal(t, 59.2, second["USD"])
	require.Equal(t, 20.1, second["EUR"])
	require.Equal(t, 12.3, second["CNY"])
	require.Equal(t, 5.2, second["JPY"])
	require.Equal(t, 4.9, second["GBP"])
	require.Equal(t, 8.3, second["Other"])
}
