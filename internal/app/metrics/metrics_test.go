package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/":                     "/",
		"/api/orders":           "/api/orders",
		"/api/orders/42":        "/api/orders/:id",
		"/api/orders/42/status": "/api/orders/:id/status",
		"/api/clients/filter":   "/api/clients/filter",
		"/api/products/abc/":    "/api/products/abc",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalPath(in), in)
	}
}

func TestInstrumentHandlerCountsRequests(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), nil)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/orders/:id", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/7", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/orders/:id", "418"))

	assert.Equal(t, before+1, after)
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(ordersCreated)
	RecordOrderCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(ordersCreated))

	RecordTokenIssued("")
	assert.GreaterOrEqual(t, testutil.ToFloat64(tokensIssued.WithLabelValues("unknown")), 1.0)
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordOrderStatusChange("Pronto")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "fastfood_orders_status_changes_total"))
}
