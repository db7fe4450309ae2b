// Package daemon runs the poll loop: it owns the device registry,
// refreshes idle counters, lets the decision engine drive each disk and
// persists idle state across restarts.
package daemon

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hushdisk/hushdisk/pkg/device"
	"github.com/hushdisk/hushdisk/pkg/diskstats"
	"github.com/hushdisk/hushdisk/pkg/engine"
	"github.com/hushdisk/hushdisk/pkg/exechelper"
	"github.com/hushdisk/hushdisk/pkg/exporter"
	"github.com/hushdisk/hushdisk/pkg/sgio"
	"github.com/hushdisk/hushdisk/pkg/store"
	"github.com/hushdisk/hushdisk/pkg/udev"
)

// Manager wires discovery, idle tracking, the decision engine and
// persistence into the daemon's poll loop. Devices are evaluated
// sequentially; hotplug and config reloads are funneled into the loop
// through channels. The mutex guards the registry and every
// controller's state: the metrics scrape reads controllers from its
// own goroutine, so the poll loop mutates them under the same lock.
type Manager struct {
	config  *Config
	cmdExec exechelper.Executor
	runner  device.CommandRunner
	monitor udev.DiskMonitor

	tracker *diskstats.Tracker
	store   *store.Store
	led     *device.LedIndicator
	metrics *exporter.CollectorManager

	mutex       sync.Mutex
	engine      *engine.Engine
	controllers map[string]*engine.Controller

	configPath string
	reload     chan *Config
}

// NewManager builds a manager from a validated config. The counter
// source reads the standard /proc and /sys mounts.
func NewManager(config *Config, configPath string) (*Manager, error) {
	thresholds, err := config.TierThresholds()
	if err != nil {
		return nil, err
	}
	source, err := diskstats.NewDefaultProcSource()
	if err != nil {
		return nil, err
	}

	cmdExec := exechelper.NewExecutor()
	m := &Manager{
		config:      config,
		cmdExec:     cmdExec,
		runner:      sgio.New(),
		monitor:     udev.NewDiskMonitor(),
		tracker:     diskstats.NewTracker(source),
		store:       store.New(config.StoreFile()),
		led:         device.NewLedIndicator(cmdExec, config.EnableLed),
		engine:      engine.New(thresholds),
		controllers: make(map[string]*engine.Controller),
		configPath:  configPath,
		reload:      make(chan *Config, 1),
	}
	m.metrics = exporter.NewCollectorManager(m)
	return m, nil
}

// Run discovers devices, starts the hotplug and config watchers and
// polls until ctx is canceled. On shutdown the in-flight device
// finishes its cycle and idle state is flushed.
func (m *Manager) Run(ctx context.Context) error {
	for name, record := range m.store.Load() {
		m.tracker.Seed(name, record)
	}

	for _, event := range m.monitor.ListExist() {
		m.addDevice(event.Name())
	}

	events := make(chan udev.Event)
	go m.monitor.Monitor(events, ctx.Done())

	if m.config.MetricsAddr != "" {
		go m.metrics.Run(m.config.MetricsAddr)
	}

	go WatchConfig(m.configPath, ctx.Done(), func(config *Config) {
		select {
		case m.reload <- config:
		default:
		}
	})

	ticker := time.NewTicker(m.config.Interval())
	defer ticker.Stop()

	log.WithFields(log.Fields{
		"interval": m.config.Interval().String(),
		"devices":  len(m.controllers),
	}).Info("Started power management loop")

	for {
		select {
		case <-ticker.C:
			m.pollOnce()

		case event := <-events:
			m.handleHotplug(event)

		case config := <-m.reload:
			m.applyConfig(config)
			ticker.Reset(m.config.Interval())

		case <-ctx.Done():
			log.Info("Shutting down, flushing idle state")
			if err := m.store.Save(m.tracker.Snapshot()); err != nil {
				log.WithError(err).Error("Failed to flush idle state on shutdown")
				return err
			}
			return nil
		}
	}
}

// RunOnce performs a single decision cycle over the existing devices
// and flushes state. Used by the oneshot mode.
func (m *Manager) RunOnce() error {
	for name, record := range m.store.Load() {
		m.tracker.Seed(name, record)
	}
	for _, event := range m.monitor.ListExist() {
		m.addDevice(event.Name())
	}
	m.pollOnce()
	return m.store.Save(m.tracker.Snapshot())
}

func (m *Manager) addDevice(name string) {
	if m.config.Excluded(name) {
		log.WithField("device", name).Info("Device is excluded from management")
		return
	}

	m.mutex.Lock()
	_, known := m.controllers[name]
	m.mutex.Unlock()
	if known {
		return
	}

	driver := device.New(name, m.runner, m.cmdExec)
	profile, err := driver.Discover()
	if err != nil {
		log.WithError(err).WithField("device", name).Error("Failed to discover device, skipping")
		return
	}

	ctrl := engine.NewController(profile, driver)
	if err := ctrl.SyncHardwareState(); err != nil {
		log.WithError(err).WithField("device", name).Warn("Failed to read initial power state")
	}
	if idleSince, ok := m.tracker.IdleSince(name); ok {
		ctrl.SetIdleSince(idleSince)
	}

	m.mutex.Lock()
	m.controllers[name] = ctrl
	m.mutex.Unlock()

	log.WithFields(log.Fields{
		"device":    name,
		"transport": profile.Transport.String(),
		"serial":    profile.Serial,
	}).Info("Managing device")
}

func (m *Manager) removeDevice(name string) {
	m.mutex.Lock()
	_, known := m.controllers[name]
	delete(m.controllers, name)
	m.mutex.Unlock()

	if known {
		m.tracker.Forget(name)
		log.WithField("device", name).Info("Stopped managing device")
	}
}

func (m *Manager) handleHotplug(event udev.Event) {
	switch event.Type {
	case udev.EventAdd, udev.EventExist:
		m.addDevice(event.Name())
	case udev.EventRemove:
		m.removeDevice(event.Name())
	}
}

// pollOnce runs one decision cycle across every managed device. A
// failing device is logged and skipped; it never blocks the others.
func (m *Manager) pollOnce() {
	m.mutex.Lock()
	names := make([]string, 0, len(m.controllers))
	for name := range m.controllers {
		names = append(names, name)
	}
	m.mutex.Unlock()

	for _, name := range names {
		m.pollDevice(name)
	}
}

func (m *Manager) pollDevice(name string) {
	idleSince, err := m.tracker.Update(name)
	if err != nil {
		log.WithError(err).WithField("device", name).Error("Failed to read I/O counters, skipping cycle")
		return
	}

	// Controller state is read by the metrics scrape, so the whole
	// mutation including the decision runs under the lock. A scrape
	// may wait out an in-flight hardware command.
	m.mutex.Lock()
	ctrl := m.controllers[name]
	if ctrl == nil {
		m.mutex.Unlock()
		return
	}
	ctrl.SetIdleSince(idleSince)

	idle := time.Since(idleSince)
	decision, err := m.engine.Decide(ctrl, idle)
	stagedTier, staged := ctrl.Staged()
	state := ctrl.CurrentState()
	m.mutex.Unlock()

	if err != nil {
		if staged {
			m.metrics.ObserveCommand(name, stagedTier.String(), err)
		}
		log.WithError(err).WithFields(log.Fields{
			"device": name,
			"idle":   idle.Round(time.Second).String(),
		}).Error("Failed to apply power state transition")
		return
	}

	if decision.Action == engine.ActionIssued {
		m.metrics.ObserveCommand(name, decision.Tier.String(), nil)
		m.led.Indicate(device.DevPath(name), decision.Verified)
	}

	log.WithFields(log.Fields{
		"device": name,
		"idle":   idle.Round(time.Second).String(),
		"state":  state.String(),
	}).Info(decision.String())
}

// applyConfig hot-swaps the threshold ladder. Structural settings like
// the store path and metrics address need a restart and keep their old
// values.
func (m *Manager) applyConfig(config *Config) {
	thresholds, err := config.TierThresholds()
	if err != nil {
		log.WithError(err).Error("Rejecting config reload")
		return
	}

	m.mutex.Lock()
	m.engine = engine.New(thresholds)
	m.config.PollInterval = config.PollInterval
	m.config.Thresholds = config.Thresholds
	m.config.Exclude = config.Exclude
	m.mutex.Unlock()

	log.Info("Reloaded configuration")
}

// DeviceStatuses exports the managed device set for the metrics scrape.
func (m *Manager) DeviceStatuses() []exporter.DeviceStatus {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	statuses := make([]exporter.DeviceStatus, 0, len(m.controllers))
	for name, ctrl := range m.controllers {
		profile := ctrl.Profile()
		statuses = append(statuses, exporter.DeviceStatus{
			Name:        name,
			Transport:   profile.Transport.String(),
			Serial:      profile.Serial,
			State:       ctrl.CurrentState().String(),
			StateDepth:  ctrl.CurrentState().Depth(),
			IdleSeconds: time.Since(ctrl.IdleSince()).Seconds(),
		})
	}
	return statuses
}
