package main

//go-build: CGO_ENABLED=0

import (
	"github.com/robotalks/seriallink/pkg/cli/sh"
	"github.com/robotalks/seriallink/pkg/link"
)

func init() {
	link.SetupFlags()
}

func main() {
	sh.Main()
}
