package actions

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp-forge/contextio/internal/cmd/base"
	"github.com/hashicorp-forge/contextio/pkg/contextio"
)

type Command struct {
	*base.Command

	flagAccountOnly bool
}

func (c *Command) Synopsis() string {
	return "List the supported API actions"
}

func (c *Command) Help() string {
	return `Usage: contextio actions [options]

  List every API action with its HTTP method, path and accepted parameters.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("actions", flag.ContinueOnError))

	f.BoolVar(
		&c.flagAccountOnly, "account-only", false,
		"Only list actions that are scoped to an account.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tMETHOD\tPATH\tACCOUNT\tPARAMETERS")
	for _, a := range contextio.Actions() {
		if c.flagAccountOnly && !a.TakesAccount() {
			continue
		}
		params := strings.Join(a.AllowedParams(), ",")
		if params == "" {
			params = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			a, a.Method(), a.Path(), a.TakesAccount(), params)
	}
	if err := w.Flush(); err != nil {
		c.UI.Error(fmt.Sprintf("error writing table: %v", err))
		return 1
	}

	c.UI.Output(strings.TrimRight(b.String(), "\n"))
	return 0
}
