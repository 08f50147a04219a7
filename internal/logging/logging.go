// Package logging wraps the standard library logger behind a level filter,
// the way hashicorp/serf's agent command configures its log output.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/hashicorp/logutils"
)

// LevelFilter returns a LevelFilter configured with the levels clifga logs
// at, mirroring command/agent/log_levels.go's levelFilter().
func LevelFilter() *logutils.LevelFilter {
	return &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"TRACE", "DEBUG", "INFO", "WARN", "ERR"},
		MinLevel: "INFO",
		Writer:   os.Stderr,
	}
}

// ValidateLevelFilter checks that a level is one of the filter's known
// levels before it is applied, the way the agent command validates
// -log-level before accepting it.
func ValidateLevelFilter(minLevel logutils.LogLevel, filter *logutils.LevelFilter) bool {
	for _, level := range filter.Levels {
		if level == minLevel {
			return true
		}
	}
	return false
}

// New builds a *log.Logger writing through a LevelFilter at the given
// minimum level. An empty minLevel leaves the filter's default in place.
func New(minLevel string, w io.Writer) (*log.Logger, *logutils.LevelFilter) {
	filter := LevelFilter()
	if w != nil {
		filter.Writer = w
	}
	if minLevel != "" {
		filter.MinLevel = logutils.LogLevel(minLevel)
	}
	return log.New(filter, "", log.LstdFlags), filter
}
