package main

import (
	"os"

	"github.com/hashicorp-forge/contextio/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
