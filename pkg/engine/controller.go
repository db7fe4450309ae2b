package engine

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hushdisk/hushdisk/pkg/device"
)

// Controller owns the power management state of one physical device. It
// is mutated only by the engine during a poll cycle.
type Controller struct {
	profile *device.DeviceProfile
	driver  device.Driver

	// current is the last verified hardware state, never the last
	// requested one.
	current device.PowerState

	// requested is the tier the controller is staging toward.
	requested device.PowerState

	// staged marks that the previous cycle already proposed requested
	// without committing it.
	staged bool

	// idleSince is the start of the current idle run, supplied by the
	// idle tracker.
	idleSince time.Time
}

// NewController builds a controller around a discovered profile and its
// driver. The initial hardware state is re-probed, never assumed.
func NewController(profile *device.DeviceProfile, driver device.Driver) *Controller {
	return &Controller{
		profile:   profile,
		driver:    driver,
		idleSince: time.Now(),
	}
}

// Profile returns the read-only device profile.
func (c *Controller) Profile() *device.DeviceProfile {
	return c.profile
}

// CurrentState is the last verified hardware power tier.
func (c *Controller) CurrentState() device.PowerState {
	return c.current
}

// Staged reports whether a transition is staged and toward which tier.
func (c *Controller) Staged() (device.PowerState, bool) {
	return c.requested, c.staged
}

// IdleSince is the start of the device's current idle run.
func (c *Controller) IdleSince() time.Time {
	return c.idleSince
}

// SetIdleSince records the idle-run start reported by the idle tracker.
// New activity resets staging since the run it was staged for is over.
func (c *Controller) SetIdleSince(t time.Time) {
	if t.After(c.idleSince) {
		c.staged = false
		c.requested = device.Active
	}
	c.idleSince = t
}

// SyncHardwareState re-reads the device's power tier. Called at startup
// so restarts recover hardware truth instead of trusting stale state.
func (c *Controller) SyncHardwareState() error {
	state, err := c.driver.ReadPowerState()
	if err != nil {
		return err
	}
	c.current = state
	log.WithFields(log.Fields{"device": c.profile.Name, "state": state.String()}).Debug("Synced hardware power state")
	return nil
}
