package device

import (
	"fmt"

	"github.com/hushdisk/hushdisk/pkg/scsi"
)

// PowerState is a power condition tier. Values are ordered by strictly
// increasing sleep depth; the engine never requests a shallower state.
type PowerState int

const (
	Active PowerState = iota
	IdleA
	IdleB
	IdleC
	StandbyY
	StandbyZ
)

var powerStateNames = map[PowerState]string{
	Active:   "ACTIVE",
	IdleA:    "IDLE_A",
	IdleB:    "IDLE_B",
	IdleC:    "IDLE_C",
	StandbyY: "STANDBY_Y",
	StandbyZ: "STANDBY_Z",
}

func (s PowerState) String() string {
	if name, ok := powerStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PowerState(%d)", int(s))
}

// Depth is the sleep depth of the tier; deeper tiers have larger depth.
func (s PowerState) Depth() int {
	return int(s)
}

// ParsePowerState parses a tier name such as "IDLE_A" or "STANDBY_Z".
func ParsePowerState(name string) (PowerState, error) {
	for state, stateName := range powerStateNames {
		if stateName == name {
			return state, nil
		}
	}
	return Active, fmt.Errorf("unknown power state %q", name)
}

// Transport is the protocol variant a device speaks. It is classified
// once at discovery and never changes for the device's lifetime.
type Transport int

const (
	TransportGeneric Transport = iota
	TransportSAS
	TransportSATA
)

func (t Transport) String() string {
	switch t {
	case TransportSAS:
		return "SAS"
	case TransportSATA:
		return "SATA"
	default:
		return "Generic"
	}
}

// LinkInfo describes the negotiated device link in transport-neutral
// terms.
type LinkInfo struct {
	// RateCode is the raw signaling rate code for SAS phys, zero for
	// SATA.
	RateCode byte

	// Rate is the human readable signaling rate, e.g. "6 Gb/s".
	Rate string

	// Type is the link type label, e.g. "SAS2" or "SATA 3.2".
	Type string

	// Address is the SAS address in hex, empty for other transports.
	Address string
}

// DeviceProfile holds everything probed about a device at discovery
// time. It is read-only once built.
type DeviceProfile struct {
	// Name is the short kernel name, e.g. "sda".
	Name string

	// Path is the device node, e.g. "/dev/sda".
	Path string

	Transport Transport

	Vendor  string
	Product string
	Serial  string

	Link LinkInfo

	// Recovery holds the hardware-reported recovery latencies per tier.
	// Informational only, never enforced against transitions.
	Recovery scsi.RecoveryTimeTable

	// Capabilities holds the per-tier enable bits and hardware timers
	// from mode page 0x1A. Only meaningful for SAS.
	Capabilities scsi.PowerControlCapabilities
}

// newProfile builds a profile with every recovery latency marked
// unsupported until a probe fills it in.
func newProfile(name, path string, transport Transport) *DeviceProfile {
	return &DeviceProfile{
		Name:      name,
		Path:      path,
		Transport: transport,
		Recovery: scsi.RecoveryTimeTable{
			Stopped:  scsi.RecoveryUnsupported,
			StandbyZ: scsi.RecoveryUnsupported,
			StandbyY: scsi.RecoveryUnsupported,
			IdleA:    scsi.RecoveryUnsupported,
			IdleB:    scsi.RecoveryUnsupported,
			IdleC:    scsi.RecoveryUnsupported,
		},
	}
}

// TierEnabled reports whether the hardware allows requesting the given
// tier. SAS devices are gated by the mode page enable bits; SATA exposes
// its commands unconditionally; Generic devices accept nothing.
func (p *DeviceProfile) TierEnabled(state PowerState) bool {
	switch p.Transport {
	case TransportSATA:
		return state != Active
	case TransportSAS:
		switch state {
		case IdleA:
			return p.Capabilities.IdleAEnabled
		case IdleB:
			return p.Capabilities.IdleBEnabled
		case IdleC:
			return p.Capabilities.IdleCEnabled
		case StandbyY:
			return p.Capabilities.StandbyYEnabled
		case StandbyZ:
			return p.Capabilities.StandbyZEnabled
		}
	}
	return false
}

// RecoverySeconds returns the hardware-reported recovery latency for the
// tier, or scsi.RecoveryUnsupported.
func (p *DeviceProfile) RecoverySeconds(state PowerState) int {
	switch state {
	case IdleA:
		return p.Recovery.IdleA
	case IdleB:
		return p.Recovery.IdleB
	case IdleC:
		return p.Recovery.IdleC
	case StandbyY:
		return p.Recovery.StandbyY
	case StandbyZ:
		return p.Recovery.StandbyZ
	}
	return scsi.RecoveryUnsupported
}
