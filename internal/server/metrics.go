package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	receiptsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receiptwise_receipts_processed_total",
		Help: "Number of receipts successfully scanned and stored.",
	})

	scanFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receiptwise_receipt_failures_total",
		Help: "Number of uploads rejected because scanning or storing failed.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receiptwise_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// counted wraps a handler and counts its requests under the given route
// label
func counted(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
