package version

import (
	"github.com/hashicorp-forge/contextio/internal/cmd/base"
	"github.com/hashicorp-forge/contextio/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: contextio version

  Print the version of the contextio CLI.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("contextio v" + version.Version)
	return 0
}
