package cmdparser

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hushdisk/hushdisk/pkg/ctl/formatter"
	"github.com/hushdisk/hushdisk/pkg/device"
	"github.com/hushdisk/hushdisk/pkg/scsi"
)

var profileCmd = &cobra.Command{
	Use:     "profile {deviceName}",
	Args:    cobra.ExactArgs(1),
	Short:   "Show a disk's power capabilities and recovery latencies.",
	Long:    "You can use 'hushdiskctl profile sda' to inspect which power tiers the hardware supports and how long wakeup takes.",
	Example: "hushdiskctl profile sda",
	RunE:    profileRunE,
}

func profileRunE(_ *cobra.Command, args []string) error {
	driver := newDriver(args[0])

	profile, err := driver.Discover()
	if err != nil {
		return err
	}

	identity := []table.Row{
		{"Device", profile.Path},
		{"Transport", profile.Transport.String()},
		{"Vendor", profile.Vendor},
		{"Product", profile.Product},
		{"Serial", profile.Serial},
	}
	if profile.Link.Rate != "" {
		identity = append(identity, table.Row{"Link", fmt.Sprintf("%s (%s)", profile.Link.Rate, profile.Link.Type)})
	}
	if profile.Link.Address != "" {
		identity = append(identity, table.Row{"SAS address", profile.Link.Address})
	}
	formatter.PrintTable("Identity", table.Row{"Key", "Value"}, identity)

	tiers := []device.PowerState{device.IdleA, device.IdleB, device.IdleC, device.StandbyY, device.StandbyZ}
	rows := make([]table.Row, 0, len(tiers))
	for _, tier := range tiers {
		recovery := "-"
		if seconds := profile.RecoverySeconds(tier); seconds != scsi.RecoveryUnsupported {
			recovery = fmt.Sprintf("%ds", seconds)
		}
		rows = append(rows, table.Row{tier.String(), profile.TierEnabled(tier), recovery})
	}
	formatter.PrintTable("Power tiers", table.Row{"Tier", "Enabled", "Recovery"}, rows)
	return nil
}
