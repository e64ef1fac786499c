package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCountersAndHistogram(t *testing.T) {
	r := New()
	r.IncJobStarted()
	r.IncJobStarted()
	r.IncJobFailed()
	r.ObserveValidation(3)
	r.ObserveCache(true)
	r.ObserveJobDurationMs(150)
	r.ObserveJobDurationMs(5000)

	out := r.Render()
	assert.Contains(t, out, "tailor_jobs_started_total 2\n")
	assert.Contains(t, out, "tailor_jobs_failed_total 1\n")
	assert.Contains(t, out, "tailor_validation_findings_total 3\n")
	assert.Contains(t, out, "tailor_cache_hits_total 1\n")
	assert.Contains(t, out, `tailor_job_duration_ms_bucket{le="100"} 0`)
	assert.Contains(t, out, `tailor_job_duration_ms_bucket{le="250"} 1`)
	assert.Contains(t, out, `tailor_job_duration_ms_bucket{le="5000"} 2`)
	assert.Contains(t, out, `tailor_job_duration_ms_bucket{le="+Inf"} 2`)
	assert.Contains(t, out, "tailor_job_duration_ms_sum 5150\n")
}

func TestNilRegistryIgnoresUpdates(t *testing.T) {
	var r *Registry
	r.IncJobStarted()
	r.ObserveJobDurationMs(10)
	assert.Empty(t, r.Render())
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := New()
	reg.IncJobSucceeded()

	router := gin.New()
	router.GET("/metrics", reg.Handler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tailor_jobs_succeeded_total 1")
}
