package device

import (
	log "github.com/sirupsen/logrus"

	"github.com/hushdisk/hushdisk/pkg/exechelper"
)

// LedMode is a ledctl pattern name.
type LedMode string

const (
	LedOff  LedMode = "off"
	LedSlow LedMode = "rebuild"
	LedFast LedMode = "locate"
	LedOn   LedMode = "failure"
)

const ledctlCmd = "ledctl"

// LedIndicator mirrors a device's verified power tier onto its slot LED
// through ledctl. Indication is cosmetic; failures are logged and
// swallowed.
type LedIndicator struct {
	cmdExec exechelper.Executor
	enabled bool
}

func NewLedIndicator(cmdExec exechelper.Executor, enabled bool) *LedIndicator {
	return &LedIndicator{cmdExec: cmdExec, enabled: enabled}
}

// modeForState maps the verified tier to a blink pattern: deeper sleep,
// busier pattern.
func modeForState(state PowerState) LedMode {
	switch state {
	case IdleB:
		return LedSlow
	case IdleC, StandbyY:
		return LedFast
	case StandbyZ:
		return LedOn
	}
	return LedOff
}

// Indicate updates the LED for the device at path to reflect state.
func (l *LedIndicator) Indicate(path string, state PowerState) {
	if l == nil || !l.enabled {
		return
	}

	mode := modeForState(state)
	result := l.cmdExec.RunCommand(exechelper.ExecParams{
		CmdName: ledctlCmd,
		CmdArgs: []string{"--listed-only", string(mode) + "=" + path},
	})
	if result.Error != nil {
		log.WithError(result.Error).WithFields(log.Fields{"path": path, "mode": mode}).Debug("Failed to update slot LED")
	}
}
