package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"staychain/config"
	"staychain/core"
	"staychain/crypto"
	"staychain/observability"
	"staychain/observability/logging"
	"staychain/rpc"
	"staychain/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "stayd:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var logWriter io.Writer
	if cfg.LogFile != "" {
		logWriter = logging.RotatingWriter(cfg.LogFile)
	}
	logger := logging.Setup("stayd", cfg.NetworkName, logWriter)

	if cfg.AdminAddress != "" {
		if _, err := crypto.DecodeAddress(cfg.AdminAddress); err != nil {
			return fmt.Errorf("invalid AdminAddress: %w", err)
		}
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	node, err := core.NewNode(db, core.Genesis{
		AdminAddress:  cfg.AdminAddress,
		DefaultFeeBps: cfg.DefaultFeeBps,
	})
	if err != nil {
		return fmt.Errorf("initialise node: %w", err)
	}
	node.SetEmitter(observability.NewEventSink(logger))
	for _, module := range cfg.PausedModules {
		node.SetPaused(module, true)
		logger.Warn("module paused by configuration", "module", module)
	}

	if cfg.RPCAuthToken == "" {
		logger.Warn("no RPC auth token configured; administrative methods are disabled")
	}

	logger.Info("node ready",
		"network", cfg.NetworkName,
		"backend", cfg.StorageBackend,
		"dataDir", cfg.DataDir,
	)

	server := rpc.NewServer(node, cfg.RPCAuthToken, logger)
	return server.Start(cfg.RPCAddress)
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendLevelDB:
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "state.db"))
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
