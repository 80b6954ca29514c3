package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvancesTotalByOutcome(t *testing.T) {
	before := testutil.ToFloat64(AdvancesTotal.WithLabelValues(OutcomePromoted))
	AdvancesTotal.WithLabelValues(OutcomePromoted).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AdvancesTotal.WithLabelValues(OutcomePromoted)))
}

func TestHandlerExposesCollectors(t *testing.T) {
	SchedulerTicks.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grooveray_scheduler_ticks_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
