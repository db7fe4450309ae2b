package scsi

// SCSI operation codes used by the power management path.
const (
	opInquiry       = 0x12
	opModeSense6    = 0x1A
	opStartStopUnit = 0x1B
	opRequestSense  = 0x03
	opLogSense      = 0x4D
)

// Page control selector for MODE SENSE.
const (
	PageControlCurrent    = 0x0
	PageControlChangeable = 0x1
	PageControlDefault    = 0x2
	PageControlSaved      = 0x3
)

// Pages carrying power condition data.
const (
	// VPDPagePowerCondition is the INQUIRY vital product data page with
	// the per-tier recovery times.
	VPDPagePowerCondition = 0x8A

	// ModePagePowerCondition is the mode page with the per-tier enable
	// bits and hardware auto-transition timers.
	ModePagePowerCondition = 0x1A

	// LogPageProtocolSpecific is the SAS protocol specific log page with
	// the phy link descriptors.
	LogPageProtocolSpecific = 0x18
)

// BuildInquiry builds a 6-byte INQUIRY CDB. With vpd set, page selects a
// vital product data page instead of the standard inquiry data.
func BuildInquiry(vpd bool, page byte, length uint16) []byte {
	cdb := make([]byte, 6)
	cdb[0] = opInquiry
	if vpd {
		cdb[1] = 0x01
	}
	cdb[2] = page
	cdb[3] = byte(length >> 8)
	cdb[4] = byte(length)
	return cdb
}

// BuildLogSense builds a 10-byte LOG SENSE CDB requesting current
// cumulative values of the given page/subpage.
func BuildLogSense(page, subpage byte, length uint16) []byte {
	cdb := make([]byte, 10)
	cdb[0] = opLogSense
	// page control 0b01 = current cumulative values
	cdb[2] = page | 0x40
	cdb[3] = subpage
	cdb[7] = byte(length >> 8)
	cdb[8] = byte(length)
	return cdb
}

// BuildModeSense builds a 6-byte MODE SENSE CDB. pageControl selects
// current, changeable, default or saved values.
func BuildModeSense(pageControl, page, subpage, length byte) []byte {
	cdb := make([]byte, 6)
	cdb[0] = opModeSense6
	cdb[2] = page | pageControl<<6
	cdb[3] = subpage
	cdb[4] = length
	return cdb
}

// BuildStartStopUnit builds the 6-byte START STOP UNIT CDB that requests
// a power condition transition. powerCond and modifier are 4-bit fields.
func BuildStartStopUnit(powerCond, modifier byte) []byte {
	cdb := make([]byte, 6)
	cdb[0] = opStartStopUnit
	cdb[3] = modifier & 0x0F
	cdb[4] = powerCond << 4
	return cdb
}

// BuildRequestSense builds the 6-byte REQUEST SENSE CDB used to read the
// current power status via the additional sense code.
func BuildRequestSense() []byte {
	cdb := make([]byte, 6)
	cdb[0] = opRequestSense
	cdb[4] = 0x20
	return cdb
}
