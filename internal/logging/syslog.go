// +build !windows

package logging

import (
	"bytes"

	"github.com/hashicorp/go-syslog"
	"github.com/hashicorp/logutils"
)

// SyslogWrapper writes filtered log lines to syslog at a priority derived
// from the bracketed level prefix, adapted from serf's SyslogWrapper in
// cmd/serf/command/agent/syslog.go.
type SyslogWrapper struct {
	l      gsyslog.SyslogLogger
	filter *logutils.LevelFilter
}

// NewSyslogWrapper opens a syslog logger at the given facility and tags its
// lines with the given process name.
func NewSyslogWrapper(facility, tag string, filter *logutils.LevelFilter) (*SyslogWrapper, error) {
	l, err := gsyslog.NewLogger(gsyslog.LOG_NOTICE, facility, tag)
	if err != nil {
		return nil, err
	}
	return &SyslogWrapper{l: l, filter: filter}, nil
}

func (s *SyslogWrapper) Write(p []byte) (int, error) {
	level := extractLevel(p)
	if !s.filter.Check(p) {
		return 0, nil
	}

	var priority gsyslog.Priority
	switch level {
	case "TRACE":
		priority = gsyslog.LOG_DEBUG
	case "DEBUG":
		priority = gsyslog.LOG_INFO
	case "INFO":
		priority = gsyslog.LOG_NOTICE
	case "WARN":
		priority = gsyslog.LOG_WARNING
	case "ERR":
		priority = gsyslog.LOG_ERR
	default:
		priority = gsyslog.LOG_NOTICE
	}

	err := s.l.WriteLevel(priority, p)
	return len(p), err
}

func extractLevel(p []byte) string {
	x := bytes.IndexByte(p, '[')
	if x < 0 {
		return ""
	}
	y := bytes.IndexByte(p[x:], ']')
	if y < 0 {
		return ""
	}
	return string(p[x+1 : x+y])
}
