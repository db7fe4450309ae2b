package device

import "fmt"

// Command is the transport-specific form of a power transition request.
type Command struct {
	Transport Transport

	// PowerCond and Modifier are the START STOP UNIT fields for SAS.
	PowerCond byte
	Modifier  byte

	// HdparmArg is the hdparm flag for SATA.
	HdparmArg string
}

func (c Command) String() string {
	if c.Transport == TransportSAS {
		return fmt.Sprintf("START STOP UNIT pc=0x%X pcm=0x%X", c.PowerCond, c.Modifier)
	}
	return fmt.Sprintf("hdparm %s", c.HdparmArg)
}

// sasConditions is the fixed power condition table for START STOP UNIT.
// The forced variants set the high bit of the power condition field.
var sasConditions = map[PowerState]struct{ PowerCond, Modifier byte }{
	IdleA:    {0x2, 0x0},
	IdleB:    {0x2, 0x1},
	IdleC:    {0x2, 0x2},
	StandbyY: {0x3, 0x1},
	StandbyZ: {0x3, 0x0},
}

// Hdparm flags used for SATA transitions. SATA has no distinct standby
// depths, so STANDBY_Y and STANDBY_Z collapse onto the same command;
// this is a protocol limitation, not a bug.
const (
	hdparmIdleImmediate = "--idle-immediate"
	hdparmIdleUnload    = "--idle-unload"
	hdparmStandby       = "-y"
)

var sataCommands = map[PowerState]string{
	IdleA:    hdparmIdleImmediate,
	IdleB:    hdparmIdleUnload,
	IdleC:    hdparmIdleUnload,
	StandbyY: hdparmStandby,
	StandbyZ: hdparmStandby,
}

// MapIntent maps a target tier to the transport-specific command that
// requests it. force selects the forced SAS variants and is ignored for
// SATA.
func MapIntent(transport Transport, target PowerState, force bool) (Command, error) {
	switch transport {
	case TransportSAS:
		cond, ok := sasConditions[target]
		if !ok {
			return Command{}, fmt.Errorf("%w: no SAS power condition for %s", ErrUnsupportedTransition, target)
		}
		cmd := Command{Transport: TransportSAS, PowerCond: cond.PowerCond, Modifier: cond.Modifier}
		if force {
			cmd.PowerCond |= 0x8
		}
		return cmd, nil
	case TransportSATA:
		arg, ok := sataCommands[target]
		if !ok {
			return Command{}, fmt.Errorf("%w: no SATA command for %s", ErrUnsupportedTransition, target)
		}
		return Command{Transport: TransportSATA, HdparmArg: arg}, nil
	}
	return Command{}, fmt.Errorf("%w: %s devices accept no power commands", ErrUnsupportedTransition, transport)
}
