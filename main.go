package main

import (
	"os"

	"github.com/sheenubhat/network-automation-scripts/cli"
)

func main() {
	os.Exit(cli.Execute())
}
