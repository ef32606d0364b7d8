package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hylla/vimdo/internal/adapters/remote"
	"github.com/hylla/vimdo/internal/adapters/storage/sqlite"
	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/config"
	"github.com/hylla/vimdo/internal/platform"
	"github.com/hylla/vimdo/internal/tui"
)

// errRemoteUnsupported rejects commands that need direct database access.
var errRemoteUnsupported = errors.New("command needs the local database and cannot run with --remote")

// Both task services flip completion in one call.
var (
	_ tui.Toggler = (*app.Service)(nil)
	_ tui.Toggler = (*remote.Client)(nil)
)

// runtimeEnv is the resolved state one command runs against.
type runtimeEnv struct {
	configPath string
	cfg        config.Config
	logger     *runtimeLogger

	// tasks is the board's service: local or remote.
	tasks  tui.Service
	remote bool
	// local and repo are nil in remote mode.
	local *app.Service
	repo  *sqlite.Repository
}

// resolvePaths applies flags and env overrides to the platform defaults.
func resolvePaths(opts *globalOptions) (platform.Paths, string, string, bool, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return platform.Paths{}, "", "", false, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("VIMDO_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("VIMDO_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}
	return paths, configPath, dbPath, dbOverridden, nil
}

// openRuntime loads config, configures logging and opens the task service.
func openRuntime(ctx context.Context, opts *globalOptions, command string, stderr io.Writer) (*runtimeEnv, error) {
	paths, configPath, dbPath, dbOverridden, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if remoteURL := strings.TrimSpace(opts.remoteURL); remoteURL != "" {
		cfg.Remote.URL = remoteURL
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	rt := &runtimeEnv{
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	if cfg.Remote.URL != "" {
		client, err := remote.NewClient(remote.Config{
			BaseURL: cfg.Remote.URL,
			Timeout: cfg.Remote.Timeout.Std(),
		})
		if err != nil {
			_ = logger.Close()
			return nil, fmt.Errorf("configure remote client: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			logger.Error("remote ping failed", "url", cfg.Remote.URL, "err", err)
			_ = logger.Close()
			return nil, fmt.Errorf("ping remote server: %w", err)
		}
		rt.tasks = client
		rt.remote = true
		logger.Info("remote task service configured", "url", cfg.Remote.URL)
		return rt, nil
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("ping sqlite repository: %w", err)
	}
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path)

	rt.repo = repo
	rt.local = app.NewService(repo, time.Now)
	rt.tasks = rt.local
	return rt, nil
}

// requireLocal rejects remote mode for commands that need the database.
func (rt *runtimeEnv) requireLocal() error {
	if rt.local == nil {
		return errRemoteUnsupported
	}
	return nil
}

// Close releases the repository and the dev log file.
func (rt *runtimeEnv) Close() {
	if rt == nil {
		return
	}
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil {
			rt.logger.Warn("sqlite close failed", "db_path", rt.cfg.Database.Path, "err", err)
		}
	}
	_ = rt.logger.Close()
}
