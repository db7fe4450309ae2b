// Package engine implements the staged power-state transition logic: per
// poll cycle it decides, from idle duration and the last verified
// hardware state, whether a device should stage, commit or hold a
// transition to a deeper tier.
package engine

import (
	"fmt"
	"time"

	"github.com/hushdisk/hushdisk/pkg/device"
)

// Action classifies the outcome of one decision cycle.
type Action int

const (
	// ActionNone means the device is active with nothing to do.
	ActionNone Action = iota

	// ActionStaged means a transition was proposed but no hardware
	// command was issued yet.
	ActionStaged

	// ActionIssued means a staged transition was committed to hardware.
	ActionIssued

	// ActionHolding means the device already sleeps and the next tier's
	// threshold is not reached yet.
	ActionHolding
)

// Decision is the structured outcome of one cycle for one device. Its
// String is the human-readable status line; errors are reported
// separately and never through the status.
type Decision struct {
	Action Action

	// Tier is the staged/committed tier, or the held tier for
	// ActionHolding.
	Tier device.PowerState

	// Verified is the hardware state after an issued command.
	Verified device.PowerState

	// NextThreshold is the unmet threshold while holding; zero when the
	// device already sleeps at the deepest configured tier.
	NextThreshold time.Duration
}

func (d Decision) String() string {
	switch d.Action {
	case ActionStaged:
		return fmt.Sprintf("%s Staged", d.Tier)
	case ActionIssued:
		return fmt.Sprintf("%s Issued", d.Tier)
	case ActionHolding:
		if d.NextThreshold > 0 {
			return fmt.Sprintf("holding at %s, next tier at %s idle", d.Tier, d.NextThreshold)
		}
		return fmt.Sprintf("holding at %s", d.Tier)
	}
	return "active, no action"
}

// Engine evaluates the tier ladder for device controllers.
type Engine struct {
	thresholds *TierThresholdSet
}

// New builds an engine over a validated threshold set.
func New(thresholds *TierThresholdSet) *Engine {
	return &Engine{thresholds: thresholds}
}

// Thresholds returns the engine's tier ladder.
func (e *Engine) Thresholds() *TierThresholdSet {
	return e.thresholds
}

// Decide runs one decision cycle for the controller. Tiers are evaluated
// deepest first; the first tier whose threshold is met, that deepens the
// verified state and that the hardware reports enabled wins. A tier the
// profile reports disabled is skipped in favor of the next shallower
// one. The first eligible cycle stages; the next commits and verifies.
//
// On a command failure the controller is left bit-for-bit unchanged so
// the next cycle re-evaluates from the same facts.
func (e *Engine) Decide(ctrl *Controller, idle time.Duration) (Decision, error) {
	for _, entry := range e.thresholds.DeepestFirst() {
		if idle < entry.Threshold {
			continue
		}
		// never request backward or redundant transitions
		if ctrl.current.Depth() >= entry.Tier.Depth() {
			continue
		}
		// unsupported tier: downgrade to the next shallower entry
		if !ctrl.profile.TierEnabled(entry.Tier) {
			continue
		}

		if !ctrl.staged || ctrl.requested != entry.Tier {
			ctrl.staged = true
			ctrl.requested = entry.Tier
			return Decision{Action: ActionStaged, Tier: entry.Tier}, nil
		}

		verified, err := ctrl.driver.RequestPowerState(entry.Tier, false)
		if err != nil {
			return Decision{}, err
		}
		ctrl.current = verified
		ctrl.staged = false
		ctrl.requested = device.Active
		return Decision{Action: ActionIssued, Tier: entry.Tier, Verified: verified}, nil
	}

	if ctrl.current.Depth() > device.Active.Depth() {
		decision := Decision{Action: ActionHolding, Tier: ctrl.current}
		if next, ok := e.thresholds.NextDeeper(ctrl.current); ok && idle < next.Threshold {
			decision.NextThreshold = next.Threshold
		}
		return decision, nil
	}

	return Decision{Action: ActionNone}, nil
}
