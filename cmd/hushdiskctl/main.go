package main

import (
	"os"

	"github.com/hushdisk/hushdisk/pkg/ctl/cmdparser"
)

func main() {
	err := cmdparser.Hushdiskctl.Execute()
	if err != nil {
		os.Exit(1)
	}
}
