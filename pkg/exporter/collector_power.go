package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// DeviceStatus is one managed disk's view for the scrape.
type DeviceStatus struct {
	Name        string
	Transport   string
	Serial      string
	State       string
	StateDepth  int
	IdleSeconds float64
}

// StatusSource supplies the current device set at scrape time.
type StatusSource interface {
	DeviceStatuses() []DeviceStatus
}

type PowerStateMetricsCollector struct {
	source StatusSource

	stateMetricsDesc *prometheus.Desc
	idleMetricsDesc  *prometheus.Desc
}

func newCollectorForPowerState(source StatusSource) prometheus.Collector {
	return &PowerStateMetricsCollector{
		source: source,
		stateMetricsDesc: prometheus.NewDesc(
			"hushdisk_device_power_state",
			"The current power state depth of the device, 0 is fully active.",
			[]string{"device", "transport", "serial", "state"},
			nil,
		),
		idleMetricsDesc: prometheus.NewDesc(
			"hushdisk_device_idle_seconds",
			"Seconds since I/O activity was last observed on the device.",
			[]string{"device", "transport"},
			nil,
		),
	}
}

func (mc *PowerStateMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(mc, ch)
}

func (mc *PowerStateMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	log.Debug("Collecting metrics for device power states ...")
	statuses := mc.source.DeviceStatuses()
	if len(statuses) == 0 {
		log.Debug("No managed devices")
		return
	}

	for _, status := range statuses {
		ch <- prometheus.MustNewConstMetric(
			mc.stateMetricsDesc, prometheus.GaugeValue,
			float64(status.StateDepth),
			status.Name, status.Transport, status.Serial, status.State,
		)
		ch <- prometheus.MustNewConstMetric(
			mc.idleMetricsDesc, prometheus.GaugeValue,
			status.IdleSeconds,
			status.Name, status.Transport,
		)
	}
}
