package main

import (
	"github.com/mitchellh/cli"
)

// Commands is the mapping of all the available clifga subcommands,
// mirroring serf's commands.go registration shape.
func Commands(ui cli.Ui) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"run": func() (cli.Command, error) {
			return &RunCommand{Ui: ui}, nil
		},
		"call": func() (cli.Command, error) {
			return &CallCommand{Ui: ui}, nil
		},
		"players": func() (cli.Command, error) {
			return &PlayersCommand{Ui: ui}, nil
		},
	}
}
