package cmdparser

import (
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hushdisk/hushdisk/pkg/ctl/formatter"
	"github.com/hushdisk/hushdisk/pkg/udev"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Args:    cobra.ExactArgs(0),
	Short:   "List block disks and their current power states.",
	Long:    "You can use 'hushdiskctl list' to enumerate the host's physical disks with transport, link and power state.",
	Example: "hushdiskctl list",
	RunE:    listRunE,
}

func listRunE(_ *cobra.Command, _ []string) error {
	events := udev.NewDiskMonitor().ListExist()

	header := table.Row{"#", "Device", "Transport", "Vendor", "Product", "Serial", "Link", "State"}
	rows := make([]table.Row, 0, len(events))
	for i, event := range events {
		name := event.Name()
		driver := newDriver(name)

		profile, err := driver.Discover()
		if err != nil {
			log.WithError(err).WithField("device", name).Error("Failed to discover device")
			rows = append(rows, table.Row{i + 1, name, "-", "-", "-", "-", "-", "-"})
			continue
		}

		state := "-"
		if current, err := driver.ReadPowerState(); err == nil {
			state = current.String()
		}

		link := profile.Link.Rate
		if link == "" {
			link = "-"
		}
		rows = append(rows, table.Row{i + 1, name, profile.Transport.String(),
			profile.Vendor, profile.Product, profile.Serial, link, state})
	}

	formatter.PrintTable("Disks", header, rows)
	return nil
}
