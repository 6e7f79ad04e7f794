package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/contextio/internal/cmd/base"
	"github.com/hashicorp-forge/contextio/internal/cmd/commands/actions"
	"github.com/hashicorp-forge/contextio/internal/cmd/commands/call"
	"github.com/hashicorp-forge/contextio/internal/cmd/commands/docs"
	"github.com/hashicorp-forge/contextio/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := &base.Command{
		Log: log,
		UI:  ui,
		FS:  afero.NewOsFs(),
	}

	Commands = map[string]cli.CommandFactory{
		"actions": func() (cli.Command, error) {
			return &actions.Command{Command: b}, nil
		},
		"call": func() (cli.Command, error) {
			return &call.Command{Command: b}, nil
		},
		"docs": func() (cli.Command, error) {
			return &docs.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
