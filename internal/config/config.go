// Package config builds a gbxremote.Config from layered sources: built-in
// defaults, an optional JSON file, and command-line flags, in that order of
// increasing precedence.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/bgentry/speakeasy"
	"github.com/mitchellh/mapstructure"

	"github.com/snixtho/clifga/gbxremote"
)

// Config is the flat option set an operator can supply, either via a JSON
// file or via flags. It mirrors gbxremote.Config's fields using the
// mapstructure tags spec.md's option table names.
type Config struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	APIVersion    string `mapstructure:"apiVersion"`
	ConnRetries   int    `mapstructure:"connRetries"`
	ResultTimeout string `mapstructure:"resultTimeout"`
}

// DefaultConfig seeds a Config from gbxremote's own defaults.
func DefaultConfig() *Config {
	d := gbxremote.DefaultConfig()
	return &Config{
		Host:          "127.0.0.1",
		Port:          5000,
		APIVersion:    d.APIVersion,
		ConnRetries:   d.ConnRetries,
		ResultTimeout: d.ResultTimeout.String(),
	}
}

// ReadConfigFile decodes a JSON file into a generic map and then into a
// Config via mapstructure, mirroring the teacher's ReadConfigPaths +
// MergeConfig two-step without requiring the whole file to match the
// struct's shape up front.
func ReadConfigFile(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	var cfg Config
	if err := mapstructure.Decode(generic, &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// MergeConfig overlays non-zero fields of other onto base, returning a new
// Config. Mirrors the teacher's MergeConfig semantics: later sources win,
// field by field, rather than wholesale replacement.
func MergeConfig(base, other *Config) *Config {
	result := *base
	if other.Host != "" {
		result.Host = other.Host
	}
	if other.Port != 0 {
		result.Port = other.Port
	}
	if other.Username != "" {
		result.Username = other.Username
	}
	if other.Password != "" {
		result.Password = other.Password
	}
	if other.APIVersion != "" {
		result.APIVersion = other.APIVersion
	}
	if other.ConnRetries != 0 {
		result.ConnRetries = other.ConnRetries
	}
	if other.ResultTimeout != "" {
		result.ResultTimeout = other.ResultTimeout
	}
	return &result
}

// FlagConfig parses a flag.FlagSet against args and returns the resulting
// overrides plus the config-file path, if any, mirroring the teacher's
// readConfig flag wiring in command/agent/command.go.
func FlagConfig(fs *flag.FlagSet, args []string) (cfg *Config, configFile string, err error) {
	cfg = &Config{}
	var resultTimeout string

	fs.StringVar(&cfg.Host, "host", "", "dedicated server host")
	fs.IntVar(&cfg.Port, "port", 0, "dedicated server XML-RPC port")
	fs.StringVar(&cfg.Username, "username", "", "authentication username")
	fs.StringVar(&cfg.Password, "password", "", "authentication password")
	fs.StringVar(&cfg.APIVersion, "api-version", "", "GbxRemote API version string")
	fs.IntVar(&cfg.ConnRetries, "conn-retries", 0, "connection retry attempts")
	fs.StringVar(&resultTimeout, "result-timeout", "", "call result timeout (e.g. 5s)")
	fs.StringVar(&configFile, "config-file", "", "json file to read config from")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	cfg.ResultTimeout = resultTimeout
	return cfg, configFile, nil
}

// ToRemoteConfig converts Config into the gbxremote.Config the transport
// engine actually consumes, prompting for a missing password on the
// controlling terminal via speakeasy rather than leaving it blank.
func (c *Config) ToRemoteConfig() (*gbxremote.Config, error) {
	rc := gbxremote.DefaultConfig()
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Username = c.Username
	rc.Password = c.Password

	if c.APIVersion != "" {
		rc.APIVersion = c.APIVersion
	}
	if c.ConnRetries != 0 {
		rc.ConnRetries = c.ConnRetries
	}
	if c.ResultTimeout != "" {
		d, err := time.ParseDuration(c.ResultTimeout)
		if err != nil {
			return nil, fmt.Errorf("config: invalid resultTimeout %q: %w", c.ResultTimeout, err)
		}
		rc.ResultTimeout = d
	}

	if rc.Password == "" {
		pw, err := speakeasy.Ask(fmt.Sprintf("Password for %s: ", rc.Username))
		if err != nil {
			return nil, fmt.Errorf("config: reading password: %w", err)
		}
		rc.Password = pw
	}

	return rc, nil
}

// Load runs the full defaults -> file -> flags pipeline the teacher's
// readConfig performs, returning a ready-to-use gbxremote.Config.
func Load(fs *flag.FlagSet, args []string) (*gbxremote.Config, error) {
	flagCfg, configFile, err := FlagConfig(fs, args)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if configFile != "" {
		fileCfg, err := ReadConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = MergeConfig(cfg, fileCfg)
	}
	cfg = MergeConfig(cfg, flagCfg)

	return cfg.ToRemoteConfig()
}
