package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/metrics"
)

// MetricsHandle holds the registry served on /metrics and the engine's
// collectors registered on it.
type MetricsHandle struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// ProvideMetrics creates the registry with runtime and engine collectors.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return nil, err
	}

	return &MetricsHandle{Registry: reg, Metrics: m}, nil
}
