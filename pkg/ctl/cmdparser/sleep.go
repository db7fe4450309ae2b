package cmdparser

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hushdisk/hushdisk/pkg/device"
)

var (
	sleepTier  string
	sleepForce bool
)

var sleepCmd = &cobra.Command{
	Use:     "sleep {deviceName}",
	Args:    cobra.ExactArgs(1),
	Short:   "Request a power state transition on a disk.",
	Long:    "You can use 'hushdiskctl sleep sda --tier STANDBY_Z' to move a disk into a power saving state immediately.",
	Example: "hushdiskctl sleep sda --tier STANDBY_Z",
	RunE:    sleepRunE,
}

func init() {
	sleepCmd.Flags().StringVar(&sleepTier, "tier", "STANDBY_Z", "Target power state")
	sleepCmd.Flags().BoolVar(&sleepForce, "force", false, "Set the force bit so the hardware's own timers cannot override")
}

func sleepRunE(_ *cobra.Command, args []string) error {
	name := args[0]
	target, err := device.ParsePowerState(sleepTier)
	if err != nil {
		return err
	}

	driver := newDriver(name)
	verified, err := driver.RequestPowerState(target, sleepForce)
	if err != nil {
		return err
	}

	fmt.Printf("%s: requested %s, hardware reports %s\n", device.DevPath(name), target, verified)
	return nil
}
