package device

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/hushdisk/hushdisk/pkg/exechelper"
)

// sataDriver drives SATA devices through hdparm and reads identity data
// from smartctl's JSON report. ATA exposes no way to observe the
// intermediate idle tiers: whenever hdparm reports "active" the driver
// trusts the last requested tier instead of re-deriving it.
type sataDriver struct {
	name    string
	path    string
	cmdExec exechelper.Executor

	// lastRequested is the tier of the last issued command; reported
	// back while the drive claims to be active.
	lastRequested PowerState
}

const hdparmCmd = "hdparm"

func (d *sataDriver) smartctlJSON(args ...string) (gjson.Result, error) {
	cmdArgs := append([]string{"--json", "--nocheck=standby"}, args...)
	cmdArgs = append(cmdArgs, d.path)
	result := d.cmdExec.RunCommand(exechelper.ExecParams{
		CmdName: smartctlCmd,
		CmdArgs: cmdArgs,
	})
	if result.Error != nil && result.OutBuf.Len() == 0 {
		return gjson.Result{}, commandFailed(d.name, smartctlCmd+" "+strings.Join(cmdArgs, " "), result.Error)
	}
	out := result.OutBuf.String()
	if !gjson.Valid(out) {
		return gjson.Result{}, commandFailed(d.name, smartctlCmd, fmt.Errorf("invalid JSON output"))
	}
	return gjson.Parse(out), nil
}

func (d *sataDriver) hdparm(arg string) (string, error) {
	result := d.cmdExec.RunCommand(exechelper.ExecParams{
		CmdName: hdparmCmd,
		CmdArgs: []string{arg, d.path},
	})
	if result.Error != nil && result.OutBuf.Len() == 0 {
		return "", commandFailed(d.name, hdparmCmd+" "+arg, result.Error)
	}
	return result.OutBuf.String(), nil
}

func (d *sataDriver) Discover() (*DeviceProfile, error) {
	profile := newProfile(d.name, d.path, TransportSATA)

	report, err := d.smartctlJSON("-x")
	if err != nil {
		return nil, err
	}

	profile.Vendor = report.Get("model_family").String()
	profile.Product = report.Get("model_name").String()
	profile.Serial = report.Get("serial_number").String()

	if speed := report.Get("interface_speed.current.units_per_second"); speed.Exists() {
		profile.Link.Rate = fmt.Sprintf("%.1f Gb/s", speed.Float()/10.0)
	}
	profile.Link.Type = report.Get("sata_version.string").String()

	return profile, nil
}

func (d *sataDriver) ReadPowerState() (PowerState, error) {
	out, err := d.hdparm("-C")
	if err != nil {
		return Active, err
	}

	switch {
	case strings.Contains(out, "active"):
		// every idle tier reports active here, assume the drive entered
		// the tier we asked for
		return d.lastRequested, nil
	case strings.Contains(out, "standby"):
		return StandbyZ, nil
	}
	return Active, nil
}

func (d *sataDriver) RequestPowerState(target PowerState, force bool) (PowerState, error) {
	cmd, err := MapIntent(TransportSATA, target, force)
	if err != nil {
		return Active, err
	}

	if _, err := d.hdparm(cmd.HdparmArg); err != nil {
		return Active, err
	}
	d.lastRequested = target

	verified, err := d.ReadPowerState()
	if err != nil {
		return Active, err
	}
	log.WithFields(log.Fields{
		"device":    d.name,
		"requested": target.String(),
		"verified":  verified.String(),
	}).Debug("Power transition issued")
	return verified, nil
}
