package main

import (
	"os"

	"github.com/pop-os/proc-modules/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
