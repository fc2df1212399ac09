// Package config loads the relay's startup configuration.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Config holds a server's startup configuration.
type Config struct {
	ServerName string `yaml:"server_name"`
	Port       int    `yaml:"port"`
	MOTD       string `yaml:"motd"`
	Version    string `yaml:"version"`

	// IdleBeforePing is how long a session may be idle before the event loop
	// sends it a liveness PING.
	IdleBeforePing time.Duration `yaml:"idle_before_ping"`

	// PingTimeout is how long a session may go without a PONG after a PING
	// before it is detached.
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

// Default returns the configuration used when no file is given: server
// name "LudServer", port 6667, empty motd, version "LudServer1.0".
func Default() Config {
	return Config{
		ServerName:     "LudServer",
		Port:           6667,
		MOTD:           "",
		Version:        "LudServer1.0",
		IdleBeforePing: 90 * time.Second,
		PingTimeout:    15 * time.Second,
	}
}

// Load reads a YAML config file and overlays it onto Default(); blank
// fields fall back to the default, and the config file itself is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "opening config file %s", path)
	}
	defer f.Close() // nolint: errcheck

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %s", path)
	}

	if cfg.ServerName == "" {
		cfg.ServerName = "LudServer"
	}
	if cfg.Port == 0 {
		cfg.Port = 6667
	}
	if cfg.Version == "" {
		cfg.Version = "LudServer1.0"
	}
	if cfg.IdleBeforePing == 0 {
		cfg.IdleBeforePing = 90 * time.Second
	}
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = 15 * time.Second
	}

	return cfg, nil
}
