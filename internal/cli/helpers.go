package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvp-joe/symdex/internal/config"
	"github.com/mvp-joe/symdex/internal/database"
	"github.com/mvp-joe/symdex/internal/extract"
)

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgDir != "" {
		cfg, err = config.LoadConfigFromDir(cfgDir)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}
	return cfg, nil
}

func progressReporter() database.ProgressReporter {
	if quiet {
		return database.NoOpProgressReporter{}
	}
	return NewProgressBarReporter()
}

// openDatabase loads the snapshot named by cfg, or creates an empty
// database seeded with the configured excludes when none exists yet.
func openDatabase(cfg *config.Config) (*database.Database, error) {
	registry := extract.DefaultRegistry()

	db, err := database.Load(cfg.Database, registry)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		db = database.New(registry)
		if err := db.AddExcludes(cfg.Excludes); err != nil {
			return nil, err
		}
	}
	db.SetProgressReporter(progressReporter())
	return db, nil
}

// requireDatabase is openDatabase for commands that make no sense
// without an existing snapshot.
func requireDatabase(cfg *config.Config) (*database.Database, error) {
	if _, err := os.Stat(cfg.Database); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no database at %s (run \"symdex scan\" first)", cfg.Database)
		}
		return nil, err
	}
	return openDatabase(cfg)
}

func saveDatabase(db *database.Database, cfg *config.Config) error {
	if dir := filepath.Dir(cfg.Database); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	return db.Save(cfg.Database)
}
