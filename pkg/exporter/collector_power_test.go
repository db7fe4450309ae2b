package exporter

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type staticSource []DeviceStatus

func (s staticSource) DeviceStatuses() []DeviceStatus {
	return s
}

func TestPowerStateCollector(t *testing.T) {
	source := staticSource{
		{Name: "sda", Transport: "SAS", Serial: "ZA1", State: "STANDBY_Z", StateDepth: 5, IdleSeconds: 3700},
		{Name: "sdb", Transport: "SATA", Serial: "WD2", State: "ACTIVE", StateDepth: 0, IdleSeconds: 12},
	}
	collector := newCollectorForPowerState(source)

	expected := `
# HELP hushdisk_device_idle_seconds Seconds since I/O activity was last observed on the device.
# TYPE hushdisk_device_idle_seconds gauge
hushdisk_device_idle_seconds{device="sda",transport="SAS"} 3700
hushdisk_device_idle_seconds{device="sdb",transport="SATA"} 12
# HELP hushdisk_device_power_state The current power state depth of the device, 0 is fully active.
# TYPE hushdisk_device_power_state gauge
hushdisk_device_power_state{device="sda",serial="ZA1",state="STANDBY_Z",transport="SAS"} 5
hushdisk_device_power_state{device="sdb",serial="WD2",state="ACTIVE",transport="SATA"} 0
`
	assert.Nil(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestObserveCommandCounters(t *testing.T) {
	manager := NewCollectorManager(staticSource{})
	manager.ObserveCommand("sda", "IDLE_B", nil)
	manager.ObserveCommand("sda", "IDLE_B", nil)
	manager.ObserveCommand("sda", "STANDBY_Z", assert.AnError)

	assert.Equal(t, float64(2), testutil.ToFloat64(manager.commandsIssued.WithLabelValues("sda", "IDLE_B")))
	assert.Equal(t, float64(1), testutil.ToFloat64(manager.commandsIssued.WithLabelValues("sda", "STANDBY_Z")))
	assert.Equal(t, float64(1), testutil.ToFloat64(manager.commandsFailed.WithLabelValues("sda", "STANDBY_Z")))
	assert.Equal(t, float64(0), testutil.ToFloat64(manager.commandsFailed.WithLabelValues("sda", "IDLE_B")))
}
