// Package udev discovers block disks at startup and watches kernel
// uevents for hotplug so the daemon's device set tracks the host.
package udev

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
	log "github.com/sirupsen/logrus"
)

// Event types delivered to the daemon.
const (
	EventExist  = "exist"
	EventAdd    = "add"
	EventRemove = "remove"
)

// Event describes a disk appearing, disappearing, or existing at scan
// time. DevName is the node path such as /dev/sda.
type Event struct {
	Type    string
	DevPath string
	DevName string
}

// Name returns the bare device name, e.g. sda.
func (e Event) Name() string {
	return filepath.Base(e.DevName)
}

// DiskMonitor enumerates and watches block disks via udev.
type DiskMonitor struct {
}

func NewDiskMonitor() DiskMonitor {
	return DiskMonitor{}
}

// ListExist crawls /sys for block disks present right now.
func (dm DiskMonitor) ListExist() []Event {
	events, err := getExistDevice(genRuleForBlock())
	if err != nil {
		log.WithError(err).Error("Failed processing existing devices")
		return nil
	}

	log.WithField("count", len(events)).Info("Finished processing existing devices")
	return events
}

// reconnectDelay spaces out netlink reconnect attempts so a persistent
// connect failure does not spin.
const reconnectDelay = time.Second

// Monitor forwards add and remove uevents to c. It reconnects on error
// and only returns when done is closed.
func (dm DiskMonitor) Monitor(c chan Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		err := monitorDeviceEvent(c, genRuleForBlock(), done)
		if err == nil {
			return
		}
		log.WithError(err).Error("Monitor udev event fail, will try to monitor again")

		select {
		case <-done:
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func monitorDeviceEvent(c chan Event, matchRule netlink.Matcher, done <-chan struct{}) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		log.WithError(err).Error("Failed to connect to Netlink")
		return err
	}
	defer conn.Close()

	errChan := make(chan error)
	eventChan := make(chan netlink.UEvent)
	quit := conn.Monitor(eventChan, errChan, matchRule)
	defer close(quit)

	for {
		select {
		case device, ok := <-eventChan:
			if !ok {
				return fmt.Errorf("event channel has been closed when monitor udev event")
			}

			if !filterDisk(device.KObj, device.Env) {
				log.WithField("kobj", device.KObj).Debug("Device is drop")
				continue
			}
			log.WithField("kobj", device.KObj).Debug("Device is keep")

			event := Event{
				Type:    string(device.Action),
				DevPath: addSysPrefix(device.KObj),
				DevName: device.Env["DEVNAME"],
			}
			if !forward(c, event, done) {
				return nil
			}

		case err := <-errChan:
			log.WithError(err).Error("Monitor udev event error")
			return err

		case <-quit:
			return fmt.Errorf("receive quit signal when monitor udev event")

		case <-done:
			return nil
		}
	}
}

func getExistDevice(matchRule netlink.Matcher) (events []Event, err error) {
	deviceEvent := make(chan crawler.Device)
	errors := make(chan error)
	crawler.ExistingDevices(deviceEvent, errors, matchRule)

	for {
		select {
		case device, ok := <-deviceEvent:
			if !ok {
				return
			}

			if !filterDisk(device.KObj, device.Env) {
				log.WithField("kobj", device.KObj).Debug("Device is drop")
				continue
			}
			log.WithField("kobj", device.KObj).Debug("Device is keep")

			events = append(events, Event{
				Type:    EventExist,
				DevPath: addSysPrefix(device.KObj),
				DevName: device.Env["DEVNAME"],
			})

		case err = <-errors:
			return
		}
	}
}

// forward delivers an event to c unless done closes first, so a
// shutdown with no receiver left cannot strand the monitor goroutine.
func forward(c chan Event, event Event, done <-chan struct{}) bool {
	select {
	case c <- event:
		return true
	case <-done:
		return false
	}
}

func addSysPrefix(path string) string {
	if len(path) >= 5 && path[:5] == "/sys/" {
		return path
	}
	return "/sys" + path
}
