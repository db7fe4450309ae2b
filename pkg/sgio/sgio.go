// Package sgio issues raw SCSI command descriptor blocks against block
// devices through the Linux SCSI Generic driver's SG_IO ioctl.
package sgio

import (
	"fmt"
	"os"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	sgIO = 0x2285

	sgDxferNone    = 0
	sgDxferFromDev = -3

	sgInterfaceID = int32('S')

	defaultTimeoutMillis = 5000
	senseBufferLength    = 32
)

// sgIOHdr mirrors struct sg_io_hdr from <scsi/sg.h>.
type sgIOHdr struct {
	InterfaceID    int32
	DxferDirection int32
	CmdLen         uint8
	MxSbLen        uint8
	IovecCount     uint16
	DxferLen       uint32
	Dxferp         uintptr
	Cmdp           uintptr
	Sbp            uintptr
	Timeout        uint32
	Flags          uint32
	PackID         int32
	UsrPtr         uintptr
	Status         uint8
	MaskedStatus   uint8
	MsgStatus      uint8
	SbLenWr        uint8
	HostStatus     uint16
	DriverStatus   uint16
	Resid          int32
	Duration       uint32
	Info           uint32
}

// Runner issues CDBs against device nodes. The zero value uses the
// default per-command timeout.
type Runner struct {
	// TimeoutMillis bounds a single command at the SCSI generic layer.
	TimeoutMillis uint32
}

// New creates a Runner with the default command timeout.
func New() *Runner {
	return &Runner{TimeoutMillis: defaultTimeoutMillis}
}

// Command issues cdb against the device node at path. When resp is
// non-empty the command transfers data from the device into resp. It
// returns the number of response bytes the device filled in.
func (r *Runner) Command(path string, cdb []byte, resp []byte) (int, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	timeout := r.TimeoutMillis
	if timeout == 0 {
		timeout = defaultTimeoutMillis
	}

	senseBuf := make([]byte, senseBufferLength)
	hdr := &sgIOHdr{
		InterfaceID:    sgInterfaceID,
		DxferDirection: sgDxferNone,
		CmdLen:         uint8(len(cdb)),
		MxSbLen:        uint8(len(senseBuf)),
		Cmdp:           uintptr(unsafe.Pointer(&cdb[0])),
		Sbp:            uintptr(unsafe.Pointer(&senseBuf[0])),
		Timeout:        timeout,
	}
	if len(resp) > 0 {
		hdr.DxferDirection = sgDxferFromDev
		hdr.DxferLen = uint32(len(resp))
		hdr.Dxferp = uintptr(unsafe.Pointer(&resp[0]))
	}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), uintptr(sgIO), uintptr(unsafe.Pointer(hdr))); errno != 0 {
		return 0, fmt.Errorf("ioctl SG_IO on %s failed: %v", path, errno)
	}

	if hdr.Status != 0 {
		log.WithFields(log.Fields{
			"path":   path,
			"status": hdr.Status,
			"sense":  fmt.Sprintf("% X", senseBuf[:hdr.SbLenWr]),
		}).Debug("SG_IO finished with non-good status")
		return 0, fmt.Errorf("SG_IO on %s returned status 0x%02X", path, hdr.Status)
	}

	return len(resp) - int(hdr.Resid), nil
}
