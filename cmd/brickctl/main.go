package main

import (
	"github.com/robotalks/brick.go/pkg/cli/sh"

	_ "github.com/robotalks/brick.go/pkg/cli/cmds/brick"
)

//go-build: CGO_ENABLED=0

func init() {
	sh.SetupFlags()
}

func main() {
	sh.Main()
}
