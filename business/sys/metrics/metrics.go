// Package metrics records the ledger and web metrics exposed on the debug
// service for prometheus to scrape.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "powledger"

var (
	blocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "blocks_total",
		Help:      "Count of blocks applied to the ledger by outcome.",
	}, []string{"status", "kind"})
	chainLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "chain_length",
		Help:      "Number of accepted blocks.",
	})
	unspentOutputs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "unspent_outputs",
		Help:      "Number of unspent output hashes.",
	})
	miningDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "mining",
		Name:      "duration_seconds",
		Help:      "Duration of mining operations.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"status"})
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "requests_total",
		Help:      "Count of web requests by status code.",
	}, []string{"code"})
	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "panics_total",
		Help:      "Count of recovered panics.",
	})
)

// ObserveBlock records the outcome of applying a block along with the size
// of the ledger afterwards. Rejections are labeled by the rule that failed.
func ObserveBlock(err error, length int, unspent int) {
	chainLength.Set(float64(length))
	unspentOutputs.Set(float64(unspent))

	if err == nil {
		blocksTotal.WithLabelValues("accepted", "").Inc()
		return
	}

	blocksTotal.WithLabelValues("rejected", Kind(err)).Inc()
}

// ObserveMining records how long a mining operation took.
func ObserveMining(err error, started time.Time) {
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "cancelled"
	default:
		status = "error"
	}

	miningDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

// ObserveRequest counts a completed web request.
func ObserveRequest(statusCode int) {
	requestsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// AddPanic counts a recovered panic.
func AddPanic() {
	panicsTotal.Inc()
}

// Kind returns the label used for a ledger error.
func Kind(err error) string {
	if kind := state.ValidationKind(err); kind != nil {
		return kind.Error()
	}
	return "other"
}
