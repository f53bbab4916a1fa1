package metrics

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProviderSet is a Wire provider set for metrics
var ProviderSet = wire.NewSet(
	NewRegistry,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	NewUserInfoMetrics,
)

// NewRegistry creates a registry with the Go and process collectors registered.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}
