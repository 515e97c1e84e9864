package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveIncrementsCounters(t *testing.T) {
	before := testutil.ToFloat64(spins.WithLabelValues("POINTS"))
	ObserveSpin("POINTS")
	assert.Equal(t, before+1, testutil.ToFloat64(spins.WithLabelValues("POINTS")))

	paidBefore := testutil.ToFloat64(referralConversions.WithLabelValues("paid"))
	cappedBefore := testutil.ToFloat64(referralConversions.WithLabelValues("capped"))
	ObserveReferralConversion(true)
	ObserveReferralConversion(false)
	assert.Equal(t, paidBefore+1, testutil.ToFloat64(referralConversions.WithLabelValues("paid")))
	assert.Equal(t, cappedBefore+1, testutil.ToFloat64(referralConversions.WithLabelValues("capped")))
}

func TestHandlerExposesRewardMetrics(t *testing.T) {
	ObserveCycleCompleted("gold")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rewards_bracket_cycles_completed_total"))
}
