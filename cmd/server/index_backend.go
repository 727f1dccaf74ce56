package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hordesim.ai/internal/persistence/indexdb"
	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/tuning"
	"hordesim.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	Close() error
	UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error
	Stats() indexdb.QueueStats
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("HS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		idx, err := indexdb.OpenSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported HS_INDEX_BACKEND: %s", backend)
	}
}
