package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hushdisk/hushdisk/pkg/device"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hushdisk.yaml")
	assert.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	assert.Nil(t, err)
	assert.Equal(t, 10*time.Second, config.Interval())
	assert.Equal(t, "/var/lib/hushdisk/state.json", config.StoreFile())
	assert.Equal(t, "", config.MetricsAddr)
	assert.False(t, config.EnableLed)

	thresholds, err := config.TierThresholds()
	assert.Nil(t, err)
	ladder := thresholds.ShallowestFirst()
	assert.Equal(t, device.IdleA, ladder[0].Tier)
	assert.Equal(t, device.StandbyZ, ladder[len(ladder)-1].Tier)
}

func TestLoadConfigMissingFileIsDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Nil(t, err)
	assert.Equal(t, 10*time.Second, config.Interval())
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
pollInterval: 30s
statePath: /tmp/hushdisk-state.json
metricsAddr: ":9100"
enableLed: true
exclude: [sda]
thresholds:
  IDLE_B: 5m
  STANDBY_Z: 45m
`)
	config, err := LoadConfig(path)
	assert.Nil(t, err)
	assert.Equal(t, 30*time.Second, config.Interval())
	assert.Equal(t, "/tmp/hushdisk-state.json", config.StoreFile())
	assert.Equal(t, ":9100", config.MetricsAddr)
	assert.True(t, config.EnableLed)
	assert.True(t, config.Excluded("sda"))
	assert.False(t, config.Excluded("sdb"))

	thresholds, err := config.TierThresholds()
	assert.Nil(t, err)
	ladder := thresholds.ShallowestFirst()
	assert.Equal(t, 2, len(ladder))
	assert.Equal(t, device.IdleB, ladder[0].Tier)
	assert.Equal(t, 5*time.Minute, ladder[0].Threshold)
	assert.Equal(t, device.StandbyZ, ladder[1].Tier)
	assert.Equal(t, 45*time.Minute, ladder[1].Threshold)
}

func TestConfigRejectsBadThresholds(t *testing.T) {
	testCases := []struct {
		Description string
		Thresholds  map[string]string
	}{
		{
			Description: "unknown state name",
			Thresholds:  map[string]string{"NAP": "5m"},
		},
		{
			Description: "unparseable duration",
			Thresholds:  map[string]string{"IDLE_B": "whenever"},
		},
		{
			Description: "ACTIVE cannot carry a threshold",
			Thresholds:  map[string]string{"ACTIVE": "5m"},
		},
		{
			Description: "non-increasing ladder",
			Thresholds:  map[string]string{"IDLE_A": "10m", "STANDBY_Z": "5m"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Description, func(t *testing.T) {
			config := &Config{Thresholds: testCase.Thresholds}
			_, err := config.TierThresholds()
			assert.NotNil(t, err)
		})
	}
}

func TestConfigInvalidIntervalFallsBack(t *testing.T) {
	config := &Config{PollInterval: "sometimes"}
	assert.Equal(t, 10*time.Second, config.Interval())

	config = &Config{PollInterval: "-5s"}
	assert.Equal(t, 10*time.Second, config.Interval())
}

func TestLoadConfigParseError(t *testing.T) {
	path := writeConfig(t, "pollInterval: [broken")
	_, err := LoadConfig(path)
	assert.NotNil(t, err)
}

func TestWatchConfigReload(t *testing.T) {
	path := writeConfig(t, "pollInterval: 10s\n")

	done := make(chan struct{})
	defer close(done)
	reloaded := make(chan *Config, 1)
	go WatchConfig(path, done, func(config *Config) {
		select {
		case reloaded <- config:
		default:
		}
	})

	// give the watcher time to arm before the rewrite
	time.Sleep(100 * time.Millisecond)
	assert.Nil(t, os.WriteFile(path, []byte("pollInterval: 42s\n"), 0o644))

	select {
	case config := <-reloaded:
		assert.Equal(t, 42*time.Second, config.Interval())
	case <-time.After(5 * time.Second):
		t.Fatal("config reload was not observed")
	}
}
