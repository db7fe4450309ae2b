package device

import (
	"encoding/hex"

	log "github.com/sirupsen/logrus"

	"github.com/hushdisk/hushdisk/pkg/scsi"
)

// sasDriver drives SAS devices through raw CDBs over SG_IO.
type sasDriver struct {
	name   string
	path   string
	runner CommandRunner
}

const (
	inquiryDataLength       = 44
	powerConditionVPDLength = 18
	modePage1ALength        = 0x26
	logPage18Length         = 0xD8
	requestSenseLength      = 32
)

func (d *sasDriver) command(cdb []byte, length int) ([]byte, error) {
	resp := make([]byte, length)
	n, err := d.runner.Command(d.path, cdb, resp)
	if err != nil {
		return nil, commandFailed(d.name, hex.EncodeToString(cdb), err)
	}
	return resp[:n], nil
}

// Discover probes identity, recovery times, link and power control
// capabilities. The identity probe must succeed; the remaining pages are
// best effort since not every firmware supports them.
func (d *sasDriver) Discover() (*DeviceProfile, error) {
	profile := newProfile(d.name, d.path, TransportSAS)

	data, err := d.command(scsi.BuildInquiry(false, 0, inquiryDataLength), inquiryDataLength)
	if err != nil {
		return nil, err
	}
	identity, err := scsi.DecodeStandardInquiry(data)
	if err != nil {
		return nil, err
	}
	profile.Vendor = identity.Vendor
	profile.Product = identity.Product
	profile.Serial = identity.Serial

	if data, err = d.command(scsi.BuildInquiry(true, scsi.VPDPagePowerCondition, powerConditionVPDLength), powerConditionVPDLength); err == nil {
		if profile.Recovery, err = scsi.DecodePowerConditionPage(data); err != nil {
			log.WithError(err).WithField("device", d.name).Warn("Failed to decode power condition page")
		}
	} else {
		log.WithError(err).WithField("device", d.name).Warn("Failed to read power condition page")
	}

	if data, err = d.command(scsi.BuildModeSense(scsi.PageControlCurrent, scsi.ModePagePowerCondition, 0, modePage1ALength), modePage1ALength); err == nil {
		if profile.Capabilities, err = scsi.DecodeModeSensePage1A(data); err != nil {
			log.WithError(err).WithField("device", d.name).Warn("Failed to decode power control mode page")
		}
	} else {
		log.WithError(err).WithField("device", d.name).Warn("Failed to read power control mode page")
	}

	if data, err = d.command(scsi.BuildLogSense(scsi.LogPageProtocolSpecific, 0, logPage18Length), logPage18Length); err == nil {
		if link, err := scsi.DecodeLogSensePage18(data); err != nil {
			log.WithError(err).WithField("device", d.name).Warn("Failed to decode phy link page")
		} else {
			profile.Link = LinkInfo{
				RateCode: link.RateCode,
				Rate:     link.Rate,
				Type:     link.LinkType,
				Address:  hex.EncodeToString(link.Address),
			}
		}
	} else {
		log.WithError(err).WithField("device", d.name).Warn("Failed to read phy link page")
	}

	return profile, nil
}

// senseToState maps the REQUEST SENSE additional sense code/qualifier
// pair to the power tier it reports.
func senseToState(sense scsi.SenseCode) PowerState {
	if sense.ASC != scsi.SenseCodePowerCondition {
		return Active
	}
	switch sense.ASCQ {
	case 1, 3:
		return IdleA
	case 2, 4:
		return StandbyZ
	case 5, 6:
		return IdleB
	case 7, 8:
		return IdleC
	case 9, 10:
		return StandbyY
	}
	return Active
}

func (d *sasDriver) ReadPowerState() (PowerState, error) {
	data, err := d.command(scsi.BuildRequestSense(), requestSenseLength)
	if err != nil {
		return Active, err
	}
	sense, err := scsi.DecodeRequestSense(data)
	if err != nil {
		return Active, err
	}
	return senseToState(sense), nil
}

func (d *sasDriver) RequestPowerState(target PowerState, force bool) (PowerState, error) {
	cmd, err := MapIntent(TransportSAS, target, force)
	if err != nil {
		return Active, err
	}

	if _, err := d.command(scsi.BuildStartStopUnit(cmd.PowerCond, cmd.Modifier), 0); err != nil {
		return Active, err
	}

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
