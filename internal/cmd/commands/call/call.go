package call

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/contextio/internal/cmd/base"
	"github.com/hashicorp-forge/contextio/internal/config"
	"github.com/hashicorp-forge/contextio/pkg/contextio"
)

// EnvConfig names the configuration file when -config is not set.
const EnvConfig = "CONTEXTIO_CONFIG"

// Exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitResponseError = 2
)

type Command struct {
	*base.Command

	flagConfig  string
	flagAccount string
	flagParams  paramFlag
	flagFormat  string
	flagOut     string
}

func (c *Command) Synopsis() string {
	return "Call an API action"
}

func (c *Command) Help() string {
	return `Usage: contextio call [options] <action>

  Call a Context.IO API action and print the response body.

  Parameters not accepted by the action are dropped. Values for "since" and
  "dateSent" may be unix timestamps or dates such as "2012-04-01" or
  "Apr 1, 2012".

  Exits 1 when the request could not be sent and 2 when the API returned an
  error response.

  Example:
    contextio call -account=me@example.com -param limit=10 allMessages` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("call", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		fmt.Sprintf("Path to an HCL or JSON config file. Defaults to $%s.", EnvConfig),
	)
	f.StringVar(
		&c.flagAccount, "account", "",
		"Account the action is scoped to.",
	)
	f.Var(
		&c.flagParams, "param",
		"Request parameter as key=value. May be repeated.",
	)
	f.StringVar(
		&c.flagFormat, "format", formatJSON,
		"Output format: json, yaml or raw.",
	)
	f.StringVar(
		&c.flagOut, "out", "",
		"Write the response body to this file instead of stdout.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()

	// Allow the action before the flags.
	var name string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}

	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return exitFailure
	}

	rest := f.Args()
	if name == "" && len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}
	if name == "" || len(rest) > 0 {
		c.UI.Error("expected exactly one action\n\n" + c.Help())
		return exitFailure
	}

	action, err := contextio.ParseAction(name)
	if err != nil {
		c.UI.Error(err.Error())
		return exitFailure
	}

	if !validFormat(c.flagFormat) {
		c.UI.Error(fmt.Sprintf("unknown format %q", c.flagFormat))
		return exitFailure
	}

	params, err := c.flagParams.Params()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing parameters: %v", err))
		return exitFailure
	}

	client, err := c.newClient()
	if err != nil {
		c.UI.Error(err.Error())
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := client.Do(ctx, action, c.flagAccount, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.UI.Error("interrupted")
		} else {
			c.UI.Error(fmt.Sprintf("error calling %s: %v", action, err))
		}
		return exitFailure
	}

	out, err := render(resp, c.flagFormat)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error rendering response: %v", err))
		return exitFailure
	}

	if c.flagOut != "" {
		if err := afero.WriteFile(c.FS, c.flagOut, out, 0o644); err != nil {
			c.UI.Error(fmt.Sprintf("error writing output file: %v", err))
			return exitFailure
		}
		c.UI.Info(fmt.Sprintf("wrote %d bytes to %s", len(out), c.flagOut))
	} else {
		c.UI.Output(strings.TrimRight(string(out), "\n"))
	}

	if resp.HasError {
		c.UI.Warn(fmt.Sprintf("API returned status %d (%s)", resp.StatusCode, resp.ContentType))
		if msgs, err := resp.Messages(); err == nil {
			for _, m := range msgs {
				c.UI.Warn("  " + m)
			}
		}
		return exitResponseError
	}

	return exitOK
}

func (c *Command) newClient() (*contextio.Client, error) {
	path := c.flagConfig
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg, err := config.Load(c.FS, path)
	if err != nil {
		return nil, err
	}

	log := c.Log
	if cfg.LogLevel != "" {
		log.SetLevel(cfg.Level(hclog.Warn))
	}

	clientCfg, err := cfg.ClientConfig(log)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := contextio.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating client: %w", err)
	}
	return client, nil
}
