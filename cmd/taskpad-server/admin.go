package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/marcus/taskpad/internal/api"
	"github.com/marcus/taskpad/internal/serverdb"
)

func runAdmin(args []string) {
	if len(args) == 0 {
		printAdminUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "stats":
		runAdminStats(args[1:])
	case "purge-deleted":
		runAdminPurgeDeleted(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown admin command: %s\n", args[0])
		printAdminUsage()
		os.Exit(1)
	}
}

func printAdminUsage() {
	fmt.Fprintln(os.Stderr, `Usage: taskpad-server admin <command> [flags]

Commands:
  stats          Show task counts for the server store
  purge-deleted  Hard-delete soft-deleted rows older than a cutoff`)
}

func openDB(dbPath string) *serverdb.ServerDB {
	if dbPath == "" {
		cfg := api.LoadConfig()
		dbPath = cfg.ServerDBPath
	}
	store, err := serverdb.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open database: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runAdminStats(args []string) {
	fs := flag.NewFlagSet("admin stats", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to server.db (default: from SYNC_SERVER_DB_PATH or ./data/server.db)")
	fs.Parse(args)

	store := openDB(*dbPath)
	defer store.Close()

	count, err := store.CountTasks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("tasks: %d\n", count)
}

func runAdminPurgeDeleted(args []string) {
	fs := flag.NewFlagSet("admin purge-deleted", flag.ExitOnError)
	olderThan := fs.Duration("older-than", 30*24*time.Hour, "minimum age of deleted rows to purge")
	dbPath := fs.String("db", "", "path to server.db (default: from SYNC_SERVER_DB_PATH or ./data/server.db)")
	fs.Parse(args)

	store := openDB(*dbPath)
	defer store.Close()

	cutoff := time.Now().Add(-*olderThan)
	purged, err := store.PurgeDeleted(cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("purged %d deleted task(s) older than %s\n", purged, olderThan)
}
