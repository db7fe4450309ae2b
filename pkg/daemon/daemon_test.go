package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hushdisk/hushdisk/pkg/device"
	"github.com/hushdisk/hushdisk/pkg/diskstats"
	"github.com/hushdisk/hushdisk/pkg/engine"
	"github.com/hushdisk/hushdisk/pkg/exporter"
)

type stubDriver struct {
	profile  *device.DeviceProfile
	state    device.PowerState
	requests []device.PowerState
}

func (d *stubDriver) Discover() (*device.DeviceProfile, error) {
	return d.profile, nil
}

func (d *stubDriver) ReadPowerState() (device.PowerState, error) {
	return d.state, nil
}

func (d *stubDriver) RequestPowerState(target device.PowerState, force bool) (device.PowerState, error) {
	d.requests = append(d.requests, target)
	d.state = target
	return target, nil
}

type stubSource struct {
	counters diskstats.Counters
}

func (s *stubSource) ReadCounters(string) (diskstats.Counters, error) {
	return s.counters, nil
}

func sataProfile(name string) *device.DeviceProfile {
	return &device.DeviceProfile{
		Name:      name,
		Path:      device.DevPath(name),
		Transport: device.TransportSATA,
		Serial:    "TEST-" + name,
	}
}

func testManager(t *testing.T, source diskstats.Source) *Manager {
	t.Helper()
	m := &Manager{
		config:      &Config{},
		tracker:     diskstats.NewTracker(source),
		led:         device.NewLedIndicator(nil, false),
		engine:      engine.New(engine.DefaultThresholds()),
		controllers: make(map[string]*engine.Controller),
	}
	m.metrics = exporter.NewCollectorManager(m)
	return m
}

func TestPollDeviceStagesThenCommits(t *testing.T) {
	source := &stubSource{counters: diskstats.Counters{ReadsCompleted: 10, WritesCompleted: 5}}
	m := testManager(t, source)

	driver := &stubDriver{profile: sataProfile("sda")}
	ctrl := engine.NewController(driver.profile, driver)
	m.controllers["sda"] = ctrl

	// idle for over an hour with unchanged counters
	m.tracker.Seed("sda", diskstats.Record{
		LastCheck:       time.Now().Add(-90 * time.Minute),
		ReadsCompleted:  10,
		WritesCompleted: 5,
	})

	m.pollDevice("sda")
	assert.Empty(t, driver.requests, "first eligible cycle only stages")

	m.pollDevice("sda")
	assert.Equal(t, []device.PowerState{device.StandbyZ}, driver.requests)
	assert.Equal(t, device.StandbyZ, ctrl.CurrentState())
}

func TestPollDeviceActivityResetsStaging(t *testing.T) {
	source := &stubSource{counters: diskstats.Counters{ReadsCompleted: 10}}
	m := testManager(t, source)

	driver := &stubDriver{profile: sataProfile("sda")}
	m.controllers["sda"] = engine.NewController(driver.profile, driver)
	m.tracker.Seed("sda", diskstats.Record{
		LastCheck:      time.Now().Add(-90 * time.Minute),
		ReadsCompleted: 10,
	})

	m.pollDevice("sda")
	assert.Empty(t, driver.requests)

	// new I/O lands between cycles
	source.counters.ReadsCompleted = 11
	m.pollDevice("sda")
	assert.Empty(t, driver.requests, "activity must cancel the staged transition")
}

func TestDeviceStatusesExport(t *testing.T) {
	source := &stubSource{}
	m := testManager(t, source)

	driver := &stubDriver{profile: sataProfile("sdb")}
	m.controllers["sdb"] = engine.NewController(driver.profile, driver)

	statuses := m.DeviceStatuses()
	assert.Equal(t, 1, len(statuses))
	assert.Equal(t, "sdb", statuses[0].Name)
	assert.Equal(t, "SATA", statuses[0].Transport)
	assert.Equal(t, "ACTIVE", statuses[0].State)
	assert.Equal(t, 0, statuses[0].StateDepth)
}

func TestPollAndScrapeConcurrently(t *testing.T) {
	source := &stubSource{counters: diskstats.Counters{ReadsCompleted: 10, WritesCompleted: 5}}
	m := testManager(t, source)

	driver := &stubDriver{profile: sataProfile("sda")}
	m.controllers["sda"] = engine.NewController(driver.profile, driver)
	m.tracker.Seed("sda", diskstats.Record{
		LastCheck:       time.Now().Add(-90 * time.Minute),
		ReadsCompleted:  10,
		WritesCompleted: 5,
	})

	// the scrape runs on promhttp's goroutine while the poll loop
	// mutates controller state; run both hot under the race detector
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			for _, status := range m.DeviceStatuses() {
				_ = status.State
				_ = status.IdleSeconds
			}
		}
	}()

	for i := 0; i < 200; i++ {
		m.pollDevice("sda")
	}
	<-done

	assert.Equal(t, device.StandbyZ, m.controllers["sda"].CurrentState())
}

func TestApplyConfigSwapsThresholds(t *testing.T) {
	m := testManager(t, &stubSource{})

	m.applyConfig(&Config{Thresholds: map[string]string{"STANDBY_Z": "5m"}})
	ladder := m.engine.Thresholds().ShallowestFirst()
	assert.Equal(t, 1, len(ladder))
	assert.Equal(t, device.StandbyZ, ladder[0].Tier)
	assert.Equal(t, 5*time.Minute, ladder[0].Threshold)

	// invalid reload keeps the previous ladder
	m.applyConfig(&Config{Thresholds: map[string]string{"NAP": "5m"}})
	assert.Equal(t, 1, len(m.engine.Thresholds().ShallowestFirst()))
}
