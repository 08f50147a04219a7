package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"
)

func main() {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := cli.NewCLI("clifga", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = Commands(ui)
	c.HelpFunc = cli.BasicHelpFunc("clifga")

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
