package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/snixtho/clifga/expr"
)

// RunCommand starts an interactive, line-oriented REPL: each line is parsed
// as a method call expression and issued against the dedicated server.
type RunCommand struct {
	Ui cli.Ui
}

func (c *RunCommand) Help() string {
	helpText := `
Usage: clifga run [options]

  Connects to a dedicated server and starts an interactive command line.
  Each line read from stdin is parsed as "MethodName arg1 arg2 ..." and
  issued as an XML-RPC call; the result is printed.

Options:

  -host=127.0.0.1          Dedicated server host.
  -port=5000               Dedicated server XML-RPC port.
  -username=SuperAdmin     Authentication username.
  -password=               Authentication password.
  -config-file=foo         JSON file to read connection config from.
`
	return strings.TrimSpace(helpText)
}

func (c *RunCommand) Synopsis() string {
	return "Starts an interactive command line against a dedicated server"
}

func (c *RunCommand) Run(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.Usage = func() { c.Ui.Output(c.Help()) }

	remote, _, err := connect(fs, args)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer remote.Stop()

	c.Ui.Output(fmt.Sprintf("Connected. Session %s. Type a method call, or Ctrl-D to exit.", remote.SessionID()))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		method, params, err := expr.Parse(line)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("parse error: %v", err))
			continue
		}

		result, err := remote.Call(method, params...)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("call error: %v", err))
			continue
		}

		c.Ui.Output(formatValue(result))
	}

	return 0
}
