package roomsync

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the roomsync service
type Config struct {
	Addr          string
	RoomTTL       time.Duration // idle rooms older than this are swept
	SweepInterval time.Duration // how often the sweeper runs
}

// fileConfig is the YAML shape; durations are strings like "30m"
type fileConfig struct {
	Addr          string `yaml:"addr"`
	RoomTTL       string `yaml:"room_ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// DefaultConfig returns the tuning used when no config file exists
func DefaultConfig() Config {
	return Config{
		Addr:          ":8090",
		RoomTTL:       time.Hour,
		SweepInterval: 5 * time.Minute,
	}
}

// LoadConfig reads a YAML config file, filling unset fields from defaults.
// A missing file is not an error. The ROOMSYNC_ADDR environment variable
// overrides the listen address either way.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			if fc.Addr != "" {
				cfg.Addr = fc.Addr
			}
			if fc.RoomTTL != "" {
				d, err := time.ParseDuration(fc.RoomTTL)
				if err != nil {
					return Config{}, fmt.Errorf("parse room_ttl: %w", err)
				}
				cfg.RoomTTL = d
			}
			if fc.SweepInterval != "" {
				d, err := time.ParseDuration(fc.SweepInterval)
				if err != nil {
					return Config{}, fmt.Errorf("parse sweep_interval: %w", err)
				}
				cfg.SweepInterval = d
			}
		}
	}
	if addr := os.Getenv("ROOMSYNC_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	return cfg, nil
}
