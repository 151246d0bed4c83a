package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/DaviCMachado/T2-Redes/commands"
	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/urfave/cli"
)

// Entry point of flowstat
func main() {
	app := cli.NewApp()
	app.Name = "flowstat"
	app.Usage = "Measure TCP behaviour in captured packet datasets."

	// Change the version string with updates so that a quick help command will
	// let users know what version of flowstat they're on
	app.Version = config.Version

	// Define commands used with this application
	app.Commands = commands.Commands()

	runtime.GOMAXPROCS(runtime.NumCPU())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
