package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/snixtho/clifga/expr"
)

// CallCommand connects, issues a single method call built from its
// remaining arguments, prints the result, and exits.
type CallCommand struct {
	Ui cli.Ui
}

func (c *CallCommand) Help() string {
	helpText := `
Usage: clifga call [options] MethodName [arg1 arg2 ...]

  Connects to a dedicated server, issues a single method call, prints the
  result, and exits.

Options:

  -host=127.0.0.1          Dedicated server host.
  -port=5000               Dedicated server XML-RPC port.
  -username=SuperAdmin     Authentication username.
  -password=               Authentication password.
  -config-file=foo         JSON file to read connection config from.
`
	return strings.TrimSpace(helpText)
}

func (c *CallCommand) Synopsis() string {
	return "Issues a single method call and prints the result"
}

func (c *CallCommand) Run(args []string) int {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.Usage = func() { c.Ui.Output(c.Help()) }

	remote, rest, err := connect(fs, args)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer remote.Stop()

	if len(rest) == 0 {
		c.Ui.Error("a method call expression is required")
		return 1
	}

	method, params, err := expr.Parse(strings.Join(rest, " "))
	if err != nil {
		c.Ui.Error(fmt.Sprintf("parse error: %v", err))
		return 1
	}

	result, err := remote.Call(method, params...)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("call error: %v", err))
		return 1
	}

	c.Ui.Output(formatValue(result))
	return 0
}
