package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Registry holds the process counters. Build one with New and share it; a nil *Registry ignores updates.
type Registry struct {
	jobsStarted   atomic.Uint64
	jobsSucceeded atomic.Uint64
	jobsFailed    atomic.Uint64
	jobsSkipped   atomic.Uint64
	jobRetries    atomic.Uint64

	validations        atomic.Uint64
	validationFindings atomic.Uint64
	resolveIterations  atomic.Uint64

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	jobDuration *histogram
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		jobDuration: newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000}),
	}
}

// IncJobStarted increments the started counter.
func (r *Registry) IncJobStarted() {
	if r != nil {
		r.jobsStarted.Add(1)
	}
}

// IncJobSucceeded increments the succeeded counter.
func (r *Registry) IncJobSucceeded() {
	if r != nil {
		r.jobsSucceeded.Add(1)
	}
}

// IncJobFailed increments the failed counter.
func (r *Registry) IncJobFailed() {
	if r != nil {
		r.jobsFailed.Add(1)
	}
}

// IncJobSkipped increments the skipped counter.
func (r *Registry) IncJobSkipped() {
	if r != nil {
		r.jobsSkipped.Add(1)
	}
}

// IncJobRetry increments the retry counter.
func (r *Registry) IncJobRetry() {
	if r != nil {
		r.jobRetries.Add(1)
	}
}

// ObserveValidation records one validator run and how many findings it produced.
func (r *Registry) ObserveValidation(findings int) {
	if r == nil {
		return
	}
	r.validations.Add(1)
	if findings > 0 {
		r.validationFindings.Add(uint64(findings))
	}
}

// IncResolveIteration counts one remediation round of the resolution loop.
func (r *Registry) IncResolveIteration() {
	if r != nil {
		r.resolveIterations.Add(1)
	}
}

// ObserveCache records a response cache lookup.
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.cacheHits.Add(1)
		return
	}
	r.cacheMisses.Add(1)
}

// ObserveJobDurationMs records a job duration in milliseconds.
func (r *Registry) ObserveJobDurationMs(value float64) {
	if r == nil {
		return
	}
	if value < 0 {
		value = 0
	}
	r.jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func (r *Registry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, r.Render())
	}
}

// Render renders metrics in Prometheus text format.
func (r *Registry) Render() string {
	if r == nil {
		return ""
	}
	var buf bytes.Buffer
	writeCounter(&buf, "tailor_jobs_started_total", "Total jobs started", r.jobsStarted.Load())
	writeCounter(&buf, "tailor_jobs_succeeded_total", "Total jobs succeeded", r.jobsSucceeded.Load())
	writeCounter(&buf, "tailor_jobs_failed_total", "Total jobs failed", r.jobsFailed.Load())
	writeCounter(&buf, "tailor_jobs_skipped_total", "Total jobs skipped", r.jobsSkipped.Load())
	writeCounter(&buf, "tailor_job_retries_total", "Total job retry attempts", r.jobRetries.Load())
	writeCounter(&buf, "tailor_validations_total", "Total edit set validations", r.validations.Load())
	writeCounter(&buf, "tailor_validation_findings_total", "Total validation findings", r.validationFindings.Load())
	writeCounter(&buf, "tailor_resolve_iterations_total", "Total resolution loop remediation rounds", r.resolveIterations.Load())
	writeCounter(&buf, "tailor_cache_hits_total", "Total response cache hits", r.cacheHits.Load())
	writeCounter(&buf, "tailor_cache_misses_total", "Total response cache misses", r.cacheMisses.Load())
	writeHistogram(&buf, "tailor_job_duration_ms", "Job duration in milliseconds", r.jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket whose bound it does not exceed.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Since returns the elapsed milliseconds since start.
func Since(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
