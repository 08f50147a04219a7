package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/snixtho/clifga/gbxremote"
	"github.com/snixtho/clifga/internal/config"
	"github.com/snixtho/clifga/internal/logging"
	"github.com/snixtho/clifga/rpcvalue"
)

// connect parses the common connection flags out of args, dials the
// dedicated server, and authenticates, returning a ready Remote plus the
// flag set's remaining positional arguments.
func connect(fs *flag.FlagSet, args []string) (*gbxremote.Remote, []string, error) {
	rc, err := config.Load(fs, args)
	if err != nil {
		return nil, nil, err
	}

	logger, _ := logging.New("", os.Stderr)
	remote := gbxremote.New(rc, logger)
	if !remote.Connect(rc.ConnRetries, nil) {
		return nil, nil, fmt.Errorf("failed to connect to %s:%d", rc.Host, rc.Port)
	}

	return remote, fs.Args(), nil
}

// formatValue renders an rpcvalue.Value for terminal display.
func formatValue(v rpcvalue.Value) string {
	return fmt.Sprintf("%v", v.GoValue())
}
