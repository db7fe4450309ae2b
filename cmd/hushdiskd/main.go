package main

import (
	"flag"
	"fmt"
	"path"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hushdisk/hushdisk/pkg/daemon"
	"github.com/hushdisk/hushdisk/pkg/utils"
)

var (
	configPath  = flag.String("config", "/etc/hushdisk/hushdisk.yaml", "Path to the configuration file")
	oneshot     = flag.Bool("oneshot", false, "Run a single decision cycle and exit")
	enableDebug = flag.Bool("debug", false, "Enable debug logging")
)

func setupLogging(enableDebug bool) {
	if enableDebug {
		log.SetLevel(log.DebugLevel)
	}

	log.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
		// log with funcname, file fileds. eg: func=pollDevice file="daemon.go:43"
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			s := strings.Split(f.Function, ".")
			funcname := s[len(s)-1]
			filename := path.Base(f.File)
			return funcname, fmt.Sprintf("%s:%d", filename, f.Line)
		},
	})
	log.SetReportCaller(true)
}

func main() {
	flag.Parse()
	setupLogging(*enableDebug)

	config, err := daemon.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	manager, err := daemon.NewManager(config, *configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize power management daemon")
	}

	if *oneshot {
		if err := manager.RunOnce(); err != nil {
			log.WithError(err).Fatal("Decision cycle failed")
		}
		return
	}

	if err := manager.Run(utils.SetupSignalHandler()); err != nil {
		log.WithError(err).Fatal("Power management daemon exited with error")
	}
}
