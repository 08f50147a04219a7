package gbxremote

import "time"

// Config is the set of options an operator supplies when constructing a
// Remote. It is passed once, explicitly, at construction time rather than
// read from global state.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// APIVersion is passed to SetApiVersion once authentication succeeds.
	APIVersion string

	// ConnRetries bounds the number of inline reconnection attempts a
	// call() makes before giving up and surfacing the transport error.
	ConnRetries int

	// ResultTimeout bounds how long a synchronous call() waits for its
	// result before failing with a timeout error.
	ResultTimeout time.Duration

	// ValidHeaders is the allow-list of handshake headers accepted at
	// connect time. Defaults to {"GBXRemote 2"}.
	ValidHeaders []string

	// TraceBytes bounds the size of the diagnostic wire trace ring
	// buffer. Zero disables tracing.
	TraceBytes int64
}

// DefaultConfig returns the option set the teacher's dedicated-server
// client ships with, mirroring serf's DefaultConfig() constructor shape.
func DefaultConfig() *Config {
	return &Config{
		APIVersion:    "2013-04-16",
		ConnRetries:   3,
		ResultTimeout: 5 * time.Second,
		ValidHeaders:  []string{"GBXRemote 2"},
		TraceBytes:    4096,
	}
}
