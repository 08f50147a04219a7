package config

import (
	"flag"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfigOverlaysNonZeroFields(t *testing.T) {
	base := DefaultConfig()
	other := &Config{Host: "10.0.0.5", ConnRetries: 9}

	merged := MergeConfig(base, other)
	assert.Equal(t, "10.0.0.5", merged.Host)
	assert.Equal(t, 9, merged.ConnRetries)
	assert.Equal(t, base.APIVersion, merged.APIVersion)
}

func TestReadConfigFileDecodesJSON(t *testing.T) {
	f, err := ioutil.TempFile("", "clifga-config-*.json")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = f.WriteString(`{"host": "192.168.1.10", "port": 5001, "username": "admin"}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := ReadConfigFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", cfg.Host)
	assert.Equal(t, 5001, cfg.Port)
	assert.Equal(t, "admin", cfg.Username)
}

func TestFlagConfigParsesOverridesAndConfigFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, configFile, err := FlagConfig(fs, []string{"-host", "1.2.3.4", "-config-file", "/tmp/x.json"})
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", cfg.Host)
	assert.Equal(t, "/tmp/x.json", configFile)
}

func TestToRemoteConfigParsesDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Username = "admin"
	cfg.Password = "secret"
	cfg.ResultTimeout = "10s"

	rc, err := cfg.ToRemoteConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", rc.Password)
	assert.Equal(t, "admin", rc.Username)
	assert.Equal(t, 10*time.Second, rc.ResultTimeout)
}

func TestToRemoteConfigRejectsInvalidDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Username = "admin"
	cfg.Password = "secret"
	cfg.ResultTimeout = "not-a-duration"

	_, err := cfg.ToRemoteConfig()
	assert.Error(t, err)
}

func TestLoadAppliesDefaultsFileAndFlags(t *testing.T) {
	f, err := ioutil.TempFile("", "clifga-config-*.json")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = f.WriteString(`{"host": "192.168.1.10", "port": 5001, "username": "admin", "password": "fromfile"}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	rc, err := Load(fs, []string{"-config-file", f.Name(), "-port", "6001"})
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", rc.Host)
	assert.Equal(t, 6001, rc.Port)
	assert.Equal(t, "fromfile", rc.Password)
}
