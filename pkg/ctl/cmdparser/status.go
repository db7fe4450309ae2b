package cmdparser

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hushdisk/hushdisk/pkg/ctl/formatter"
	"github.com/hushdisk/hushdisk/pkg/device"
)

var statusCmd = &cobra.Command{
	Use:     "status {deviceName}",
	Args:    cobra.ExactArgs(1),
	Short:   "Show a disk's current power state.",
	Long:    "You can use 'hushdiskctl status sda' to query one disk's transport and verified power state.",
	Example: "hushdiskctl status sda",
	RunE:    statusRunE,
}

func statusRunE(_ *cobra.Command, args []string) error {
	name := args[0]
	driver := newDriver(name)

	state, err := driver.ReadPowerState()
	if err != nil {
		return err
	}

	formatter.PrintTable("Status", table.Row{"Device", "State", "Depth"}, []table.Row{
		{device.DevPath(name), state.String(), state.Depth()},
	})
	return nil
}
