// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wolfpackai/wolfden-mcp/internal/assemble"
	"github.com/wolfpackai/wolfden-mcp/internal/config"
	"github.com/wolfpackai/wolfden-mcp/internal/database"
	"github.com/wolfpackai/wolfden-mcp/internal/distill"
	"github.com/wolfpackai/wolfden-mcp/internal/graph"
	"github.com/wolfpackai/wolfden-mcp/internal/journal"
	"github.com/wolfpackai/wolfden-mcp/internal/locking"
	"github.com/wolfpackai/wolfden-mcp/internal/memory"
	"github.com/wolfpackai/wolfden-mcp/internal/rebuild"
	"github.com/wolfpackai/wolfden-mcp/internal/server"
	"github.com/wolfpackai/wolfden-mcp/internal/tools"
	"github.com/wolfpackai/wolfden-mcp/pkg/scheduler"
)

// Version is set at build time via ldflags
var Version string

func main() {
	httpMode := flag.Bool("http", false, "Run in HTTP server mode (default: stdio for MCP)")
	athleteID := flag.String("athlete", "", "Default athlete id for stdio mode")
	rebuildDB := flag.Bool("rebuilddb", false, "Rebuild the memory table from the journal")
	forceRebuild := flag.Bool("force", false, "Overwrite existing memories (requires --rebuilddb)")
	dbType := flag.String("db-type", "", "Database type (sqlite or postgres)")
	dbPath := flag.String("db-path", "", "Database path (for sqlite)")
	dbDSN := flag.String("db-dsn", "", "Database DSN (for postgres)")
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Server port (HTTP mode only)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Wolfden MCP Server\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Server Mode:\n")
		fmt.Fprintf(os.Stderr, "  %s                        Start MCP server (stdio)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --athlete <id>         Start stdio server bound to one athlete\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --http                 Start HTTP server with background distillation\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDatabase Rebuild:\n")
		fmt.Fprintf(os.Stderr, "  %s --rebuilddb                    Rebuild memories from the journal\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --rebuilddb --force            Rebuild and overwrite existing rows\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --rebuilddb --athlete <id>     Rebuild one athlete only\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DB_TYPE       Database type (sqlite or postgres)\n")
		fmt.Fprintf(os.Stderr, "  DB_PATH       SQLite database path\n")
		fmt.Fprintf(os.Stderr, "  DB_DSN        PostgreSQL connection string\n")
		fmt.Fprintf(os.Stderr, "  PORT          Server port (HTTP mode only)\n")
		fmt.Fprintf(os.Stderr, "  JOURNAL_ROOT  Journal directory\n")
	}

	flag.Parse()

	if *forceRebuild && !*rebuildDB {
		fmt.Fprintln(os.Stderr, "ERROR: --force can only be used with --rebuilddb")
		os.Exit(1)
	}
	if *rebuildDB && *httpMode {
		fmt.Fprintln(os.Stderr, "ERROR: --rebuilddb and --http cannot be used together")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	applyEnvOverrides(cfg)
	applyCLIOverrides(cfg, *dbType, *dbPath, *dbDSN, *port)

	// stdout carries JSON-RPC in stdio mode, so all logging goes to
	// stderr regardless of mode.
	logger := newLogger(cfg.Log.Level)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting Wolfden",
		zap.String("version", version()),
		zap.String("database", cfg.Database.Type))

	db, err := database.Connect(&database.Config{
		Type:        cfg.Database.Type,
		SQLitePath:  cfg.Database.SQLitePath,
		PostgresDSN: cfg.Database.PostgresDSN,
		LogLevel:    gormlogger.Silent,
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := database.CreateIndexes(db); err != nil {
		logger.Warn("failed to create indexes", zap.Error(err))
	}
	logger.Info("database ready")

	var j *journal.Journal
	if cfg.Journal.Enabled {
		j, err = journal.Open(cfg.Journal.Root, logger)
		if err != nil {
			logger.Fatal("failed to open journal", zap.Error(err))
		}
		logger.Info("journal open", zap.String("root", j.Root()))
	} else {
		logger.Info("journal disabled")
	}

	if *rebuildDB {
		runRebuildMode(db, j, *athleteID, *forceRebuild, logger)
		return
	}

	buffer := memory.NewBuffer(db, journalOrNil(j), logger)
	nodes := graph.NewNodeStore(db)
	edges := graph.NewCorrelationGraph(db)
	distiller := distill.New(buffer, nodes, edges, memory.NewRuleExtractor(), locking.NewLocker(db), logger)
	assembler := assemble.New(db, nodes, edges)

	tc := tools.NewToolContext(buffer, nodes, edges, distiller, assembler, logger)
	srv := server.New(cfg, tc, logger)

	if *httpMode {
		sched := scheduler.New(distiller, cfg.Distill.IntervalMinutes, logger)
		sched.Start()
		defer sched.Stop()

		if err := srv.ServeHTTP(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
		return
	}

	if *athleteID != "" {
		srv.SetAthlete(*athleteID)
		logger.Info("stdio mode bound to athlete", zap.String("athlete", *athleteID))
	}
	if err := srv.ServeStdio(); err != nil {
		logger.Fatal("stdio server failed", zap.Error(err))
	}
}

func version() string {
	if Version == "" {
		return server.Version
	}
	return Version
}

// loadConfig loads from an explicit path, the default location, or
// built-in defaults, in that order.
func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: failed to load config from %s: %v, using defaults\n", path, err)
			return config.DefaultConfig()
		}
		return cfg
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: failed to load default config: %v, using defaults\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *config.Config) {
	if v := getEnv("DB_TYPE", "WOLFDEN_DB_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := getEnv("DB_PATH", "WOLFDEN_DB_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := getEnv("DB_DSN", "WOLFDEN_DB_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := getEnv("PORT", "WOLFDEN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := getEnv("JOURNAL_ROOT", "WOLFDEN_JOURNAL_ROOT"); v != "" {
		cfg.Journal.Root = v
	}
}

// applyCLIOverrides applies command-line flag overrides (highest priority)
func applyCLIOverrides(cfg *config.Config, dbType, dbPath, dbDSN string, port int) {
	if dbType != "" {
		cfg.Database.Type = dbType
	}
	if dbPath != "" {
		cfg.Database.SQLitePath = dbPath
	}
	if dbDSN != "" {
		cfg.Database.PostgresDSN = dbDSN
	}
	if port > 0 {
		cfg.Server.Port = port
	}
}

// getEnv tries multiple names and returns the first non-empty value
func getEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

// newLogger builds a stderr-only zap logger at the configured level
func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// journalOrNil converts a possibly-nil *Journal into the buffer's
// interface without producing a non-nil interface holding nil.
func journalOrNil(j *journal.Journal) memory.Journal {
	if j == nil {
		return nil
	}
	return j
}

// runRebuildMode replays the journal into the memory table and exits
func runRebuildMode(db *gorm.DB, j *journal.Journal, athleteID string, force bool, logger *zap.Logger) {
	if j == nil {
		logger.Fatal("rebuild requires the journal, enable it in config")
	}

	result, err := rebuild.Rebuild(db, j, rebuild.Options{
		AthleteID: athleteID,
		Force:     force,
	}, logger)
	if err != nil {
		logger.Fatal("rebuild failed", zap.Error(err))
	}

	logger.Info("rebuild completed",
		zap.Int("entries_processed", result.EntriesProcessed),
		zap.Int("memories_created", result.MemoriesCreated),
		zap.Int("memories_skipped", result.MemoriesSkipped))
	for _, e := range result.Errors {
		logger.Warn("rebuild entry skipped", zap.String("reason", e))
	}
}
