package docs

import (
	"flag"
	"fmt"

	"github.com/pkg/browser"

	"github.com/hashicorp-forge/contextio/internal/cmd/base"
	"github.com/hashicorp-forge/contextio/pkg/contextio"
)

// openURL is replaced in tests.
var openURL = browser.OpenURL

type Command struct {
	*base.Command

	flagAPIVersion string
	flagPrint      bool
}

func (c *Command) Synopsis() string {
	return "Open the documentation for an API action"
}

func (c *Command) Help() string {
	return `Usage: contextio docs [options] <action>

  Open the documentation page for an API action in the default browser.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("docs", flag.ContinueOnError))

	f.StringVar(
		&c.flagAPIVersion, "api-version", contextio.DefaultAPIVersion,
		"API version of the documentation.",
	)
	f.BoolVar(
		&c.flagPrint, "print", false,
		"Print the URL instead of opening it.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if f.NArg() != 1 {
		c.UI.Error("expected exactly one action\n\n" + c.Help())
		return 1
	}

	action, err := contextio.ParseAction(f.Arg(0))
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	u := action.DocURL(c.flagAPIVersion)
	if c.flagPrint {
		c.UI.Output(u)
		return 0
	}

	c.Log.Debug("opening documentation", "action", action.String(), "url", u)
	if err := openURL(u); err != nil {
		c.UI.Error(fmt.Sprintf("error opening browser: %v", err))
		c.UI.Output(u)
		return 1
	}
	return 0
}
