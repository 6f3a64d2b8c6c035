// Package config loads process configuration from a TOML file with .env
// and environment-variable overrides, the same two-layer scheme the
// original feeder used (config.toml plus env-var overrides for paths).
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ChannelConfig describes one named channel to stand up at startup.
type ChannelConfig struct {
	Kind     string `toml:"kind"` // "shmem", "pubsub", or "rpc"
	Src      string `toml:"src"`
	Dst      string `toml:"dst"`
	Capacity int    `toml:"capacity"`
	NBytes   int    `toml:"nbytes"`
}

// ActorConfig describes one actor to build at startup.
type ActorConfig struct {
	Name       string `toml:"name"`
	StatusSlot int    `toml:"status_slot"`
}

// Config is the full process configuration.
type Config struct {
	NATSURL  string                   `toml:"nats_url"`
	ShmDir   string                   `toml:"shm_dir"`
	Channels map[string]ChannelConfig `toml:"channels"`
	Actors   map[string]ActorConfig   `toml:"actors"`
}

// Load reads and parses a TOML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := toml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadEnv loads a .env file into the process environment if present. A
// missing file is not an error; .env is optional local override material,
// never a requirement.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// StringEnv returns the environment variable key, or def if unset.
func StringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
