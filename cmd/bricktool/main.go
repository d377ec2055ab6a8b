package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/urfave/cli"
)

func main() {
	// glog registers its flags on the standard flag set.
	flag.CommandLine.Parse(nil)
	defer glog.Flush()

	app := cli.NewApp()
	app.Name = "bricktool"
	app.Usage = "Maintain a brick over its serial line"
	app.Flags = globalFlags
	app.Commands = commands
	if err := app.Run(os.Args); err != nil {
		glog.Exit(err)
	}
}
