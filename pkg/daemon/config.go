package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/hushdisk/hushdisk/pkg/device"
	"github.com/hushdisk/hushdisk/pkg/engine"
)

// Config is the daemon's YAML configuration file. Zero values fall back
// to defaults, so an empty file is valid.
type Config struct {
	// PollInterval between decision cycles, e.g. "10s".
	PollInterval string `yaml:"pollInterval"`

	// StatePath is the idle-state persistence file.
	StatePath string `yaml:"statePath"`

	// MetricsAddr is the Prometheus listen address. Empty disables the
	// metrics endpoint.
	MetricsAddr string `yaml:"metricsAddr"`

	// EnableLed drives activity LEDs to mirror verified power states.
	EnableLed bool `yaml:"enableLed"`

	// Thresholds maps a power state name to the idle duration after
	// which that tier becomes eligible, e.g. STANDBY_Z: "60m".
	Thresholds map[string]string `yaml:"thresholds"`

	// Exclude lists device names never to manage, e.g. the boot disk.
	Exclude []string `yaml:"exclude"`
}

const (
	defaultPollInterval = 10 * time.Second
	defaultStatePath    = "/var/lib/hushdisk/state.json"
)

// LoadConfig parses the file at path. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// Interval returns the poll interval, defaulted when unset or invalid.
func (c *Config) Interval() time.Duration {
	if c.PollInterval == "" {
		return defaultPollInterval
	}
	interval, err := time.ParseDuration(c.PollInterval)
	if err != nil || interval <= 0 {
		log.WithField("pollInterval", c.PollInterval).Warn("Invalid poll interval, using default")
		return defaultPollInterval
	}
	return interval
}

// StoreFile returns the persistence path, defaulted when unset.
func (c *Config) StoreFile() string {
	if c.StatePath == "" {
		return defaultStatePath
	}
	return c.StatePath
}

// TierThresholds converts the configured threshold map into a validated
// set, falling back to the built-in ladder when none are configured.
func (c *Config) TierThresholds() (*engine.TierThresholdSet, error) {
	if len(c.Thresholds) == 0 {
		return engine.DefaultThresholds(), nil
	}

	thresholds := make([]engine.TierThreshold, 0, len(c.Thresholds))
	for name, after := range c.Thresholds {
		state, err := device.ParsePowerState(name)
		if err != nil {
			return nil, fmt.Errorf("threshold %q: %w", name, err)
		}
		idleFor, err := time.ParseDuration(after)
		if err != nil {
			return nil, fmt.Errorf("threshold %q: %w", name, err)
		}
		thresholds = append(thresholds, engine.TierThreshold{Tier: state, Threshold: idleFor})
	}
	// YAML maps carry no order; validation expects shallowest first
	sort.Slice(thresholds, func(i, j int) bool {
		return thresholds[i].Tier.Depth() < thresholds[j].Tier.Depth()
	})
	return engine.NewTierThresholdSet(thresholds)
}

// Excluded reports whether a device name is configured out of
// management.
func (c *Config) Excluded(name string) bool {
	for _, excluded := range c.Exclude {
		if excluded == name {
			return true
		}
	}
	return false
}

// WatchConfig watches the config file's directory and invokes onChange
// with each successfully re-parsed config. Parse failures keep the old
// config and log. It returns when done is closed.
func WatchConfig(path string, done <-chan struct{}, onChange func(*Config)) {
	if path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Error("Failed to start config watcher")
		return
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and config reloaders
	// replace the file by rename, which drops a direct watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.WithError(err).WithField("path", path).Error("Failed to add config to watch path")
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.WithField("event", event).Debug("Config file changed, reloading")
			config, err := LoadConfig(path)
			if err != nil {
				log.WithError(err).Error("Failed to reload config, keeping previous")
				continue
			}
			if _, err := config.TierThresholds(); err != nil {
				log.WithError(err).Error("Rejecting reloaded config, keeping previous")
				continue
			}
			onChange(config)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Error("Error happened when watch config events")

		case <-done:
			return
		}
	}
}
