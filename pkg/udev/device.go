package udev

import (
	"path/filepath"
	"strings"
)

// virtualPrefixes are device-node names that never map to spindles and
// are excluded from power management.
var virtualPrefixes = []string{"loop", "ram", "zram", "dm-", "md", "sr", "fd", "nbd"}

// filterDisk reports whether a block uevent describes a whole physical
// disk worth managing. Partitions and virtual devices are dropped.
func filterDisk(kObj string, env map[string]string) bool {
	if env["DEVTYPE"] != "disk" {
		return false
	}
	if strings.Contains(kObj, "/virtual/") {
		return false
	}

	name := env["DEVNAME"]
	if name == "" {
		return false
	}
	name = filepath.Base(name)
	for _, prefix := range virtualPrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return true
}
