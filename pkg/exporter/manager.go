// Package exporter serves Prometheus metrics about managed disks and
// the commands issued to them.
package exporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type CollectorManager struct {
	source   StatusSource
	registry *prometheus.Registry

	commandsIssued *prometheus.CounterVec
	commandsFailed *prometheus.CounterVec
}

func NewCollectorManager(source StatusSource) *CollectorManager {
	return &CollectorManager{
		source:   source,
		registry: prometheus.NewRegistry(),
		commandsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hushdisk_commands_issued_total",
			Help: "Power-state commands issued, by device and target state.",
		}, []string{"device", "state"}),
		commandsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hushdisk_commands_failed_total",
			Help: "Power-state commands that failed, by device and target state.",
		}, []string{"device", "state"}),
	}
}

// ObserveCommand records an issued command and whether it failed.
func (mc *CollectorManager) ObserveCommand(device, state string, err error) {
	mc.commandsIssued.WithLabelValues(device, state).Inc()
	if err != nil {
		mc.commandsFailed.WithLabelValues(device, state).Inc()
	}
}

// Run registers the collectors and serves /metrics on addr until the
// listener fails. It blocks, so callers run it in a goroutine.
func (mc *CollectorManager) Run(addr string) {
	mc.registry.MustRegister(newCollectorForPowerState(mc.source))
	mc.registry.MustRegister(mc.commandsIssued)
	mc.registry.MustRegister(mc.commandsFailed)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics listener exited")
	}
}
