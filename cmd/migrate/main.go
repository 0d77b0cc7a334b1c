package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/membercard/backend/internal/infrastructure/config"
	"github.com/membercard/backend/internal/infrastructure/logger"
	"github.com/membercard/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		sqlitePath string
		logLevel   string
	)

	flag.StringVar(&sqlitePath, "sqlite", "", "Use a file-backed SQLite database instead of the configured PostgreSQL")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	db, err := openDatabase(sqlitePath)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	switch command {
	case "up":
		if err := db.Migrate(); err != nil {
			log.Fatal("Schema migration failed", zap.Error(err))
		}
		log.Info("Schema migrated successfully")

	case "ping":
		if err := db.Ping(); err != nil {
			log.Fatal("Database unreachable", zap.Error(err))
		}
		log.Info("Database reachable")

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func openDatabase(sqlitePath string) (*persistence.Database, error) {
	if sqlitePath != "" {
		return persistence.NewSQLiteDatabase(sqlitePath)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return persistence.NewDatabase(&cfg.Database)
}

func printUsage() {
	fmt.Println(`MemberCard Sync Schema Tool

Usage:
  migrate [flags] <command>

Commands:
  up      Create or update the schema for all persistence models
  ping    Verify database connectivity

Flags:
  -sqlite string        Path to a SQLite file (local development only)
  -log-level string     Log level: debug, info, warn, error (default: info)

Examples:
  # Migrate the configured PostgreSQL database
  migrate up

  # Migrate a local SQLite database
  migrate -sqlite ./membercard.db up`)
}
