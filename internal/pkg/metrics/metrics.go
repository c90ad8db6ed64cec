package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discounts_fetch_requests_total",
			Help: "Outbound retailer requests by status class.",
		},
		[]string{"retailer", "status"},
	)
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discounts_fetch_duration_seconds",
			Help:    "Duration of outbound retailer requests.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"retailer", "status"},
	)
	unitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discounts_units_total",
			Help: "Processed work units by outcome.",
		},
		[]string{"retailer", "outcome"},
	)
	offersStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discounts_offers_stored_total",
			Help: "Offer records written to the store.",
		},
		[]string{"retailer"},
	)
	offersDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discounts_offers_dropped_total",
			Help: "Offer records rejected by validation before storing.",
		},
		[]string{"retailer"},
	)
)

const (
	OutcomeOK     = "ok"
	OutcomeNoData = "no_data"
	OutcomeEmpty  = "empty"
)

func init() {
	prometheus.MustRegister(fetchRequestsTotal)
	prometheus.MustRegister(fetchDuration)
	prometheus.MustRegister(unitsTotal)
	prometheus.MustRegister(offersStored)
	prometheus.MustRegister(offersDropped)
}

// RecordFetch records one outbound request. statusCode 0 means a transport error.
func RecordFetch(retailer string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	fetchRequestsTotal.WithLabelValues(retailer, status).Inc()
	fetchDuration.WithLabelValues(retailer, status).Observe(duration.Seconds())
}

func RecordUnit(retailer, outcome string) {
	unitsTotal.WithLabelValues(retailer, outcome).Inc()
}

func RecordStored(retailer string, n int) {
	offersStored.WithLabelValues(retailer).Add(float64(n))
}

func RecordDropped(retailer string, n int) {
	offersDropped.WithLabelValues(retailer).Add(float64(n))
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode == 0:
		return "error"
	case statusCode >= 100 && statusCode < 600:
		return strconv.Itoa(statusCode/100) + "xx"
	}
	return "unknown"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
