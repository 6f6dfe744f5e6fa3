// Package main provides the interview export CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/Alex-Pennington/MARS-History-Project/internal/config"
	dbgorm "github.com/Alex-Pennington/MARS-History-Project/internal/db/gorm"
	"github.com/Alex-Pennington/MARS-History-Project/internal/export"
)

const usage = `Usage: export <command> [options]

Commands:
  list                      List all sessions
  one <session-id>          Export a single session
  all                       Export all completed sessions

Options:
  -output <dir>     Output directory (default: from config)
  -db-path <path>   SQLite database path (default: from config)
  -markdown         Also write a markdown transcript (one/all)
`

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	output := fs.String("output", "", "Output directory")
	dbPath := fs.String("db-path", "", "SQLite database path")
	markdown := fs.Bool("markdown", false, "Also write a markdown transcript")

	var positional []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if *output == "" {
		*output = cfg.ExportsDir
	}
	if *dbPath == "" {
		*dbPath = cfg.DBPath
	}

	store, err := dbgorm.NewStore(dbgorm.Config{Path: *dbPath, LogLevel: logger.Silent})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := dbgorm.NewSessionStore(store)
	exporter := export.NewExporter(sessions, dbgorm.NewMessageStore(store), dbgorm.NewExtractionStore(store), *output)
	ctx := context.Background()

	switch command {
	case "list":
		cmdList(ctx, sessions)
	case "one":
		if len(positional) != 1 {
			fmt.Fprintln(os.Stderr, "error: exactly one session-id argument is required")
			os.Exit(1)
		}
		exportOne(ctx, exporter, positional[0], *markdown)
	case "all":
		cmdAll(ctx, sessions, exporter, *markdown)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func cmdList(ctx context.Context, sessions *dbgorm.SessionStore) {
	list, err := sessions.List(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(list) == 0 {
		fmt.Println("\nNo sessions found.")
		return
	}

	fmt.Printf("\n%-20s %-10s %-12s %-10s %-8s %-12s\n", "Expert", "Callsign", "Status", "Messages", "Cost", "Date")
	fmt.Println(strings.Repeat("-", 76))

	for _, s := range list {
		callsign := s.ExpertCallsign.String
		if callsign == "" {
			callsign = "-"
		}
		date := s.CreatedAt
		if len(date) > 10 {
			date = date[:10]
		}
		fmt.Printf("%-20.20s %-10.10s %-12.12s %-10d $%-7.2f %-12s\n",
			s.ExpertName, callsign, s.Status, s.MessageCount, s.EstimatedCost, date)
	}
	fmt.Println()
}

func exportOne(ctx context.Context, exporter *export.Exporter, sessionID string, markdown bool) {
	path, err := exporter.ExportSession(ctx, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported: %s\n", path)

	if markdown {
		mdPath, err := exporter.ExportMarkdown(ctx, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported: %s\n", mdPath)
	}
}

func cmdAll(ctx context.Context, sessions *dbgorm.SessionStore, exporter *export.Exporter, markdown bool) {
	paths, err := exporter.ExportAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("No completed sessions to export.")
		return
	}
	for _, p := range paths {
		fmt.Printf("Exported: %s\n", p)
	}

	if markdown {
		completed, err := sessions.List(ctx, "completed")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		for _, s := range completed {
			mdPath, err := exporter.ExportMarkdown(ctx, s.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Exported: %s\n", mdPath)
		}
	}
}
