package device

import (
	"path"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hushdisk/hushdisk/pkg/exechelper"
)

// Driver is the uniform contract every transport variant implements.
type Driver interface {
	// Discover probes identity, link and power capability data once at
	// device discovery and returns the resulting profile.
	Discover() (*DeviceProfile, error)

	// ReadPowerState queries the hardware for its current power tier.
	ReadPowerState() (PowerState, error)

	// RequestPowerState issues the transport-specific command for the
	// target tier, then re-reads the hardware state and returns the
	// verified result, which may differ from the request.
	RequestPowerState(target PowerState, force bool) (PowerState, error)
}

// CommandRunner issues a raw CDB against a device node and fills resp
// with the returned data. Satisfied by sgio.Runner.
type CommandRunner interface {
	Command(path string, cdb []byte, resp []byte) (int, error)
}

const smartctlCmd = "smartctl"

// DevPath resolves a short kernel name like "sda" to its device node.
func DevPath(name string) string {
	if strings.HasPrefix(name, "/dev") {
		return name
	}
	return path.Join("/dev", name)
}

// ClassifyTransport probes the device's smartctl identity report and
// classifies its transport. SAS devices report a transport protocol
// line; devices whose identity cannot be read at all fall back to
// Generic.
func ClassifyTransport(cmdExec exechelper.Executor, name string) Transport {
	result := cmdExec.RunCommand(exechelper.ExecParams{
		CmdName: smartctlCmd,
		CmdArgs: []string{"--nocheck=standby", "-i", DevPath(name)},
	})
	if result.Error != nil && result.OutBuf.Len() == 0 {
		log.WithError(result.Error).WithField("device", name).Warn("Failed to probe transport, falling back to generic")
		return TransportGeneric
	}

	if strings.Contains(result.OutBuf.String(), "Transport protocol") {
		return TransportSAS
	}
	return TransportSATA
}

// New classifies the named device and builds the matching driver.
func New(name string, runner CommandRunner, cmdExec exechelper.Executor) Driver {
	transport := ClassifyTransport(cmdExec, name)
	log.WithFields(log.Fields{"device": name, "transport": transport.String()}).Info("Classified device transport")
	return NewForTransport(name, transport, runner, cmdExec)
}

// NewForTransport builds a driver for an already classified transport.
func NewForTransport(name string, transport Transport, runner CommandRunner, cmdExec exechelper.Executor) Driver {
	switch transport {
	case TransportSAS:
		return &sasDriver{name: name, path: DevPath(name), runner: runner}
	case TransportSATA:
		return &sataDriver{name: name, path: DevPath(name), cmdExec: cmdExec}
	default:
		return &genericDriver{name: name, path: DevPath(name)}
	}
}
