package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	DataDir        string   `toml:"DataDir"`
	StorageBackend string   `toml:"StorageBackend"`
	NetworkName    string   `toml:"NetworkName"`
	AdminAddress   string   `toml:"AdminAddress"`
	DefaultFeeBps  uint64   `toml:"DefaultFeeBps"`
	PausedModules  []string `toml:"PausedModules"`
	LogFile        string   `toml:"LogFile"`
	RPCAuthToken   string   `toml:"RPCAuthToken,omitempty"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists. The RPC auth token can always be supplied through the
// STAY_RPC_TOKEN environment variable, which wins over the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./stay-data"
	}
	if strings.TrimSpace(cfg.StorageBackend) == "" {
		cfg.StorageBackend = BackendLevelDB
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "stay-local"
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}
	if token := strings.TrimSpace(os.Getenv("STAY_RPC_TOKEN")); token != "" {
		cfg.RPCAuthToken = token
	}
}

func validate(cfg *Config) error {
	switch cfg.StorageBackend {
	case BackendMemory, BackendLevelDB, BackendBolt:
	default:
		return fmt.Errorf("config: unsupported storage backend %q", cfg.StorageBackend)
	}
	if cfg.DefaultFeeBps > 10_000 {
		return fmt.Errorf("config: DefaultFeeBps %d exceeds 10000", cfg.DefaultFeeBps)
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:     ":8080",
		DataDir:        "./stay-data",
		StorageBackend: BackendLevelDB,
		NetworkName:    "stay-local",
		DefaultFeeBps:  500,
		PausedModules:  []string{},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
