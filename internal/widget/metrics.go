package widget

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// sessionsOpen is served on /metrics by the default Prometheus registry.
var sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "calculator",
	Name:      "sessions_open",
	Help:      "Number of calculator sessions held in memory.",
})

// Metric instruments, initialized once via InitMetrics().
var (
	keypressCounter   metric.Int64Counter
	keypressHistogram metric.Float64Histogram
	errorCounter      metric.Int64Counter
	resultGauge       metric.Float64Gauge
)

// InitMetrics registers the OTel instruments of the calculator widget.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	keypressCounter, err = meter.Int64Counter("calculator.keypresses.total",
		metric.WithDescription("Total number of calculator keys pressed"),
		metric.WithUnit("{keypress}"),
	)
	if err != nil {
		return fmt.Errorf("creating keypress counter: %w", err)
	}

	keypressHistogram, err = meter.Float64Histogram("calculator.keypress.duration",
		metric.WithDescription("Duration of calculator key handling in milliseconds, persistence included"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50),
	)
	if err != nil {
		return fmt.Errorf("creating keypress histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The last finite result computed by any session"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}
