package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/health", http.StatusOK, 3*time.Millisecond)
	RecordHTTPRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	require.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/health", "200")))
	require.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))

	RecordChainCall("balanceOf", nil)
	RecordChainCall("balanceOf", errors.New("rpc down"))
	require.Equal(t, float64(1), testutil.ToFloat64(chainCalls.WithLabelValues("balanceOf", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(chainCalls.WithLabelValues("balanceOf", "error")))

	before := testutil.ToFloat64(pointsMinted)
	RecordPointsMinted(10)
	RecordPointsMinted(0)
	require.Equal(t, before+10, testutil.ToFloat64(pointsMinted))

	RecordRedemption("reward1")
	require.Equal(t, float64(1), testutil.ToFloat64(redemptionsRecorded.WithLabelValues("reward1")))

	RecordAuthOutcome("ok")
	require.Equal(t, float64(1), testutil.ToFloat64(authOutcomes.WithLabelValues("ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordChainCall("totalSupply", nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "coffee_rewards_chain_calls_total")
}
