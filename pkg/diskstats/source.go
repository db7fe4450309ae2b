// Package diskstats supplies per-device idle durations derived from the
// kernel's cumulative block I/O counters.
package diskstats

import (
	"errors"
	"fmt"

	"github.com/prometheus/procfs/blockdevice"
)

// Counters is the counter triple consumed by the idle tracker.
type Counters struct {
	ReadsCompleted  uint64
	WritesCompleted uint64
	IOsInProgress   uint64
}

// Source reads the current cumulative I/O counters for a device name.
type Source interface {
	ReadCounters(name string) (Counters, error)
}

// ErrSchemaMismatch reports a diskstats line with an unexpected field
// count, e.g. after a kernel change added or removed a counter. Idle
// time computed from misread offsets would be corrupt, so the device
// must be excluded from management until corrected.
var ErrSchemaMismatch = errors.New("diskstats schema mismatch")

// ErrDeviceNotFound reports a device absent from the statistics source.
var ErrDeviceNotFound = errors.New("device not found in diskstats")

// Field counts (major, minor, name included) of the diskstats schemas
// this daemon understands: 18 for discard-era kernels, 20 once flush
// counters were added.
var knownFieldCounts = map[int]bool{18: true, 20: true}

// ProcSource reads counters from /proc/diskstats.
type ProcSource struct {
	fs blockdevice.FS
}

// NewProcSource opens the proc and sys mount points.
func NewProcSource(procMountPoint, sysMountPoint string) (*ProcSource, error) {
	fs, err := blockdevice.NewFS(procMountPoint, sysMountPoint)
	if err != nil {
		return nil, err
	}
	return &ProcSource{fs: fs}, nil
}

// NewDefaultProcSource opens the standard /proc and /sys mounts.
func NewDefaultProcSource() (*ProcSource, error) {
	fs, err := blockdevice.NewDefaultFS()
	if err != nil {
		return nil, err
	}
	return &ProcSource{fs: fs}, nil
}

func (s *ProcSource) ReadCounters(name string) (Counters, error) {
	stats, err := s.fs.ProcDiskstats()
	if err != nil {
		return Counters{}, err
	}

	for _, stat := range stats {
		if stat.DeviceName != name {
			continue
		}
		if !knownFieldCounts[stat.IoStatsCount] {
			return Counters{}, fmt.Errorf("%w: device %s reports %d fields", ErrSchemaMismatch, name, stat.IoStatsCount)
		}
		return Counters{
			ReadsCompleted:  stat.ReadIOs,
			WritesCompleted: stat.WriteIOs,
			IOsInProgress:   stat.IOsInProgress,
		}, nil
	}

	return Counters{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}
