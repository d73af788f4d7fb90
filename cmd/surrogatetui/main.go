// Surrogatetui is an interactive terminal front end for the device
// controller: it starts the same discoverable engine as surrogated and
// gives an operator a live view of connected peers, device identity, and
// a debug log, instead of a plain stdout stream.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/engine"
	"github.com/padl/surrogate/logging"
	"github.com/padl/surrogate/simdevice"
	"github.com/padl/surrogate/tui"
	"github.com/padl/surrogate/wire"
)

var Version = "dev"

var (
	configPath  = flag.String("config", "", "Path to configuration file (YAML); empty uses built-in defaults")
	localIface  = flag.String("interface", "", "Local interface address to bind discovery/control to (empty: any)")
	logFile     = flag.String("log", "", "Path to debug log file")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("surrogatetui %s\n", Version)
		os.Exit(0)
	}

	store := tui.NewDebugLogStore(500)

	if *logFile != "" {
		dbg, err := logging.NewDebugLogger(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		logging.SetGlobalDebugLogger(dbg)
		defer dbg.Close()
	}

	var opts *config.Options
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		opts = loaded
	} else {
		opts = config.Defaults()
	}

	app := simdevice.New()
	controller := engine.Create(opts, app)

	if status := controller.BeginDiscoverability(*localIface); status != wire.Success {
		fmt.Fprintf(os.Stderr, "Error starting discoverability: %s\n", status)
		os.Exit(1)
	}
	defer controller.EndDiscoverability()

	store.Log("surrogatetui", fmt.Sprintf("device %d (%s) discoverable", opts.DeviceID, opts.DeviceName), false)

	ui := tui.New(controller, store)
	if err := ui.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}
