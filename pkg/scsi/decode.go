package scsi

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ErrMalformedResponse reports a response buffer too short for the
// offsets a decoder needs to read.
var ErrMalformedResponse = fmt.Errorf("malformed device response")

// RecoveryUnsupported marks a tier the hardware does not report a
// recovery time for.
const RecoveryUnsupported = -1

// StandardInquiry is the identity block of the standard INQUIRY data.
type StandardInquiry struct {
	Vendor   string
	Product  string
	Revision string
	Serial   string
}

// RecoveryTimeTable holds per-tier recovery latencies in seconds, as
// reported by the power condition VPD page. RecoveryUnsupported means the
// hardware does not support that tier.
type RecoveryTimeTable struct {
	Stopped  int
	StandbyZ int
	StandbyY int
	IdleA    int
	IdleB    int
	IdleC    int
}

// PowerControlCapabilities holds the enable bits and the hardware's own
// auto-transition timers from mode page 0x1A. Timers are in the unit the
// hardware reports, typically 100ms increments; they are informational
// only, the daemon drives its own timers.
type PowerControlCapabilities struct {
	IdleAEnabled    bool
	IdleBEnabled    bool
	IdleCEnabled    bool
	StandbyYEnabled bool
	StandbyZEnabled bool

	IdleATimer    uint32
	IdleBTimer    uint32
	IdleCTimer    uint32
	StandbyYTimer uint32
	StandbyZTimer uint32
}

// LinkDescriptor describes the negotiated phy link from log page 0x18.
type LinkDescriptor struct {
	PortID   uint16
	PhyID    byte
	RateCode byte
	Rate     string
	LinkType string
	Address  []byte
}

// SenseCode is the additional sense code/qualifier pair from REQUEST
// SENSE data. Code 0x5E carries the current power condition.
type SenseCode struct {
	ASC  byte
	ASCQ byte
}

// SenseCodePowerCondition is the additional sense code reporting a
// low power condition.
const SenseCodePowerCondition = 0x5E

func checkLength(op string, data []byte, need int) error {
	if len(data) < need {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrMalformedResponse, op, need, len(data))
	}
	return nil
}

// DecodeStandardInquiry unpacks vendor, product, revision and serial from
// standard INQUIRY data.
func DecodeStandardInquiry(data []byte) (StandardInquiry, error) {
	if err := checkLength("INQUIRY", data, 44); err != nil {
		return StandardInquiry{}, err
	}
	return StandardInquiry{
		Vendor:   strings.TrimSpace(string(data[8:16])),
		Product:  strings.TrimSpace(string(data[16:32])),
		Revision: strings.TrimSpace(string(data[32:36])),
		Serial:   strings.TrimSpace(string(data[36:44])),
	}, nil
}

// DecodePowerConditionPage unpacks the recovery time table from the power
// condition VPD page (0x8A). Recovery times are reported in milliseconds
// and converted to whole seconds. A tier whose support bit is clear is
// reported as RecoveryUnsupported.
func DecodePowerConditionPage(data []byte) (RecoveryTimeTable, error) {
	if err := checkLength("power condition page", data, 18); err != nil {
		return RecoveryTimeTable{}, err
	}

	idleASupported := data[5]&0x01 != 0
	idleBSupported := data[5]&0x02 != 0
	idleCSupported := data[5]&0x04 != 0
	standbyYSupported := data[4]&0x02 != 0
	standbyZSupported := data[4]&0x01 != 0

	gated := func(supported bool, field []byte) int {
		if !supported {
			return RecoveryUnsupported
		}
		return int(binary.BigEndian.Uint16(field)) / 1000
	}

	return RecoveryTimeTable{
		Stopped:  int(binary.BigEndian.Uint16(data[6:8])) / 1000,
		StandbyZ: gated(standbyZSupported, data[10:12]),
		StandbyY: gated(standbyYSupported, data[10:12]),
		IdleA:    gated(idleASupported, data[12:14]),
		IdleB:    gated(idleBSupported, data[14:16]),
		IdleC:    gated(idleCSupported, data[16:18]),
	}, nil
}

// DecodeModeSensePage1A unpacks the power condition mode page: per-tier
// enable bits from bytes 14/15 and the five 32-bit timer fields.
func DecodeModeSensePage1A(data []byte) (PowerControlCapabilities, error) {
	if err := checkLength("mode page 0x1A", data, 36); err != nil {
		return PowerControlCapabilities{}, err
	}
	return PowerControlCapabilities{
		StandbyYEnabled: data[14]&0x01 != 0,
		StandbyZEnabled: data[15]&0x01 != 0,
		IdleAEnabled:    data[15]&0x02 != 0,
		IdleBEnabled:    data[15]&0x04 != 0,
		IdleCEnabled:    data[15]&0x08 != 0,
		IdleATimer:      binary.BigEndian.Uint32(data[16:20]),
		StandbyZTimer:   binary.BigEndian.Uint32(data[20:24]),
		IdleBTimer:      binary.BigEndian.Uint32(data[24:28]),
		IdleCTimer:      binary.BigEndian.Uint32(data[28:32]),
		StandbyYTimer:   binary.BigEndian.Uint32(data[32:36]),
	}, nil
}

// rateLabels maps the negotiated rate nibble of the phy descriptor to a
// human readable signaling rate.
var rateLabels = map[byte]string{
	0x8: "1.5 Gb/s",
	0x9: "3 Gb/s",
	0xA: "6 Gb/s",
	0xB: "12 Gb/s",
}

// linkTypeLabels maps the negotiated rate nibble to the SAS generation
// label of the link.
var linkTypeLabels = map[byte]string{
	0x8: "SAS",
	0x9: "SAS1",
	0xA: "SAS2",
	0xB: "SAS3",
}

// DecodeLogSensePage18 extracts the phy link descriptor from the protocol
// specific log page. An unknown rate nibble yields "unknown".
func DecodeLogSensePage18(data []byte) (LinkDescriptor, error) {
	if err := checkLength("log page 0x18", data, 28); err != nil {
		return LinkDescriptor{}, err
	}

	desc := LinkDescriptor{
		PortID:   binary.BigEndian.Uint16(data[4:6]),
		PhyID:    data[11],
		RateCode: data[17] & 0x0F,
		Address:  append([]byte(nil), data[20:28]...),
	}

	var ok bool
	if desc.Rate, ok = rateLabels[desc.RateCode]; !ok {
		desc.Rate = "unknown"
	}
	if desc.LinkType, ok = linkTypeLabels[desc.RateCode]; !ok {
		desc.LinkType = "unknown"
	}
	return desc, nil
}

// DecodeRequestSense extracts the additional sense code and qualifier
// from REQUEST SENSE data. (0, 0) means the device is fully active.
func DecodeRequestSense(data []byte) (SenseCode, error) {
	if err := checkLength("REQUEST SENSE", data, 14); err != nil {
		return SenseCode{}, err
	}
	return SenseCode{ASC: data[12], ASCQ: data[13]}, nil
}
