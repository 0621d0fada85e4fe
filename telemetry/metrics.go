package telemetry

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var DefaultHistogramBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

var (
	MetricProviderRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nftmeta",
		Name:      "provider_request_total",
		Help:      "Total number of requests sent to metadata providers.",
	}, []string{"provider", "chain", "operation"})

	MetricProviderRequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nftmeta",
		Name:      "provider_request_errors_total",
		Help:      "Total number of failed requests towards metadata providers.",
	}, []string{"provider", "chain", "operation", "error"})

	MetricProviderThrottledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nftmeta",
		Name:      "provider_throttled_total",
		Help:      "Total number of requests rejected by a provider with a throttling signal.",
	}, []string{"provider", "chain"})

	MetricResolvedTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nftmeta",
		Name:      "resolved_tokens_total",
		Help:      "Total number of tokens resolved, by the stage that resolved them.",
	}, []string{"chain", "stage"})

	MetricAbsorbedFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nftmeta",
		Name:      "absorbed_failures_total",
		Help:      "Total number of advisory stage failures that were logged and skipped.",
	}, []string{"chain", "stage", "error"})

	MetricUnexpectedPanicTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nftmeta",
		Name:      "unexpected_panic_total",
		Help:      "Total number of unexpected panics.",
	}, []string{"scope", "error"})
)

var MetricHttpRequestDuration *prometheus.HistogramVec

func init() {
	if err := SetHistogramBuckets(""); err != nil {
		panic(err)
	}
}

// SetHistogramBuckets (re)creates the latency histograms with the given
// comma separated bucket boundaries.
func SetHistogramBuckets(bucketsStr string) error {
	buckets, err := ParseHistogramBuckets(bucketsStr)
	if err != nil {
		return err
	}

	if MetricHttpRequestDuration != nil {
		prometheus.DefaultRegisterer.Unregister(MetricHttpRequestDuration)
		resetHandleCache()
	}
	MetricHttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nftmeta",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of inbound metadata requests.",
		Buckets:   buckets,
	}, []string{"route", "network", "method", "status"})

	return nil
}

func ParseHistogramBuckets(bucketsStr string) ([]float64, error) {
	if bucketsStr == "" {
		return DefaultHistogramBuckets, nil
	}

	parts := strings.Split(bucketsStr, ",")
	buckets := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, value)
	}

	sort.Float64s(buckets)
	return buckets, nil
}

type handleKey struct {
	vec    interface{}
	labels string
}

// Label-bound children are cached to skip the Vec lookup on hot paths.
var handleCache sync.Map

func CounterHandle(cv *prometheus.CounterVec, labels ...string) prometheus.Counter {
	k := handleKey{vec: cv, labels: strings.Join(labels, "\x1f")}
	if v, ok := handleCache.Load(k); ok {
		return v.(prometheus.Counter)
	}
	actual, _ := handleCache.LoadOrStore(k, cv.WithLabelValues(labels...))
	return actual.(prometheus.Counter)
}

func ObserverHandle(hv *prometheus.HistogramVec, labels ...string) prometheus.Observer {
	k := handleKey{vec: hv, labels: strings.Join(labels, "\x1f")}
	if v, ok := handleCache.Load(k); ok {
		return v.(prometheus.Observer)
	}
	actual, _ := handleCache.LoadOrStore(k, hv.WithLabelValues(labels...))
	return actual.(prometheus.Observer)
}

func resetHandleCache() {
	handleCache.Range(func(k, _ interface{}) bool {
		handleCache.Delete(k)
		return true
	})
}
