package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"energy_ic_copilot/pkg/api"
	"energy_ic_copilot/pkg/core/config"
	"energy_ic_copilot/pkg/core/datamgr"
	"energy_ic_copilot/pkg/core/extract"
	"energy_ic_copilot/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("[FATAL] Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	companiesPath := filepath.Join(dataDir, "companies.yaml")
	mappingsPath := filepath.Join(dataDir, "mappings.yaml")
	financialPath := filepath.Join(dataDir, "default_financial_inputs.yaml")
	filingsDir := filepath.Join(dataDir, "filings")

	companies, err := config.LoadCompanies(companiesPath)
	if err != nil {
		logger.Warn("companies registry unavailable", zap.Error(err))
	}

	var extractor *extract.Extractor
	if e, err := extract.NewExtractorFromFile(mappingsPath, logger); err != nil {
		logger.Warn("KPI mappings unavailable", zap.String("path", mappingsPath), zap.Error(err))
	} else {
		extractor = e
	}

	var financial *config.FinancialConfig
	if cfg, err := config.LoadFinancialConfig(financialPath); err != nil {
		logger.Warn("default financial inputs unavailable", zap.Error(err))
	} else {
		financial = cfg
		validation := cfg.ValidateConsistency()
		for _, issue := range validation.Issues {
			logger.Error("financial config issue", zap.String("issue", issue))
		}
		for _, warning := range validation.Warnings {
			logger.Warn("financial config warning", zap.String("warning", warning))
		}
	}

	// Facts cache: Postgres when DATABASE_URL is set, file fallback otherwise.
	ctx := context.Background()
	var cache *store.FactsCache
	var snapshots *store.SnapshotStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := store.Open(ctx, dbURL)
		if err != nil {
			logger.Warn("database unavailable, using file cache", zap.Error(err))
		} else {
			defer pool.Close()
			if err := store.EnsureSchema(ctx, pool); err != nil {
				logger.Error("schema setup failed", zap.Error(err))
			}
			cache = store.NewFactsCache(pool, "", 0)
			snapshots = store.NewSnapshotStore(pool, "")
		}
	}
	if cache == nil {
		cache = store.NewFactsCache(nil, filepath.Join(dataDir, "cache"), 0)
		snapshots = store.NewSnapshotStore(nil, filepath.Join(dataDir, "snapshots"))
	}

	manager, err := datamgr.NewManager(datamgr.Options{
		DataDir:   dataDir,
		UserAgent: os.Getenv("SEC_USER_AGENT"),
		Companies: companies,
		Extractor: extractor,
		Cache:     cache,
		Snapshots: snapshots,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize data manager", zap.Error(err))
	}

	handler := api.NewHandler(api.Options{
		CompaniesPath: companiesPath,
		MappingsPath:  mappingsPath,
		FilingsDir:    filingsDir,
		Extractor:     extractor,
		Manager:       manager,
		Financial:     financial,
		Logger:        logger,
	})

	// Hot-reload the mappings file so pattern edits take effect without a
	// restart.
	go watchMappings(mappingsPath, handler, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("starting API server", zap.String("port", port), zap.String("data_dir", dataDir))
	if err := http.ListenAndServe(":"+port, handler.Routes()); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func watchMappings(path string, handler *api.Handler, logger *zap.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("mappings watcher unavailable", zap.Error(err))
		return
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a watch
	// on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("mappings watcher unavailable", zap.Error(err))
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			e, err := extract.NewExtractorFromFile(path, logger)
			if err != nil {
				logger.Error("mappings reload failed", zap.Error(err))
				continue
			}
			handler.SetExtractor(e)
			logger.Info("mappings reloaded", zap.String("path", path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("mappings watcher error", zap.Error(err))
		}
	}
}
