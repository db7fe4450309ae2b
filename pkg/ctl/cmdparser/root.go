// Package cmdparser defines the hushdiskctl command tree. Commands talk
// to devices directly over SG_IO, smartctl and hdparm, so they need the
// same privileges the daemon runs with.
package cmdparser

import (
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hushdisk/hushdisk/pkg/device"
	"github.com/hushdisk/hushdisk/pkg/exechelper"
	"github.com/hushdisk/hushdisk/pkg/sgio"
)

var debug bool

var Hushdiskctl = &cobra.Command{
	Use:   "hushdiskctl",
	Args:  cobra.ExactArgs(0),
	Short: "Hushdiskctl is the command-line tool for inspecting and commanding disk power states.",
	Long: "Hushdiskctl inspects disk power capabilities and issues power state\n" +
		"transitions directly, independent of the hushdisk daemon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Root cmd will show help only
		return cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !debug {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	Hushdiskctl.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")

	Hushdiskctl.AddCommand(listCmd, statusCmd, sleepCmd, profileCmd)
}

// newDriver classifies and builds a driver for the named device.
func newDriver(name string) device.Driver {
	return device.New(name, sgio.New(), exechelper.NewExecutor())
}
