package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/ryanuber/columnize"

	"github.com/snixtho/clifga/state"
)

// PlayersCommand connects, initializes the game-state tracker, and prints
// the current player roster as a table.
type PlayersCommand struct {
	Ui cli.Ui
}

func (c *PlayersCommand) Help() string {
	helpText := `
Usage: clifga players [options]

  Connects to a dedicated server, fetches the current player list, and
  prints it as a table.

Options:

  -host=127.0.0.1          Dedicated server host.
  -port=5000               Dedicated server XML-RPC port.
  -username=SuperAdmin     Authentication username.
  -password=               Authentication password.
  -config-file=foo         JSON file to read connection config from.
`
	return strings.TrimSpace(helpText)
}

func (c *PlayersCommand) Synopsis() string {
	return "Lists the players currently on a dedicated server"
}

func (c *PlayersCommand) Run(args []string) int {
	fs := flag.NewFlagSet("players", flag.ContinueOnError)
	fs.Usage = func() { c.Ui.Output(c.Help()) }

	remote, _, err := connect(fs, args)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer remote.Stop()

	tracker := state.New(remote, 100, nil)
	if err := tracker.Initialize(); err != nil {
		c.Ui.Error(fmt.Sprintf("failed to fetch player list: %v", err))
		return 1
	}

	players := tracker.GetPlayers()
	lines := []string{"Login | Nickname | Team | Spectator"}
	for _, p := range players {
		lines = append(lines, fmt.Sprintf("%s | %s | %d | %v",
			p.Login, p.NickName, p.TeamId, p.IsSpectator))
	}

	out, err := columnize.SimpleFormat(lines)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	c.Ui.Output(out)
	return 0
}
