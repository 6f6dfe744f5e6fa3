// Package main provides the access-token management CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alex-Pennington/MARS-History-Project/internal/auth"
	"github.com/Alex-Pennington/MARS-History-Project/internal/config"
)

const usage = `Usage: tokens <command> [options]

Commands:
  add -name <name> [-callsign <callsign>]   Create a new access token
  list                                      List all tokens
  revoke <token>                            Deactivate a token
  delete <token>                            Permanently delete a token

Options:
  -tokens-file <path>   Tokens file (default: from config / TOKENS_FILE)
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
	tokensFile := fs.String("tokens-file", "", "Tokens file path")
	name := fs.String("name", "", "User name")
	callsign := fs.String("callsign", "", "Amateur radio callsign")

	// Flags may trail the positional token argument.
	var positional []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := *tokensFile
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.Default()
		}
		path = cfg.TokensFile
	}

	store, err := auth.NewStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "add":
		cmdAdd(store, *name, *callsign)
	case "list":
		cmdList(store)
	case "revoke":
		cmdRevoke(store, positional)
	case "delete":
		cmdDelete(store, positional)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func cmdAdd(store *auth.Store, name, callsign string) {
	if name == "" {
		fmt.Fprintln(os.Stderr, "error: -name is required")
		os.Exit(1)
	}

	token, err := store.Create(name, callsign)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nToken created for %s\n", name)
	if callsign != "" {
		fmt.Printf("   Callsign: %s\n", callsign)
	}
	fmt.Printf("\n   Token: %s\n", token)
	first := strings.Fields(name)[0]
	fmt.Printf("\n   Give this token to %s - they'll need it to access the system.\n\n", first)
}

func cmdList(store *auth.Store) {
	entries := store.List()
	if len(entries) == 0 {
		fmt.Println("\nNo tokens found.")
		return
	}

	fmt.Printf("\n%-25s %-10s %-10s %-10s %-20s %-12s\n", "Name", "Callsign", "Status", "Sessions", "Last Used", "Token")
	fmt.Println(strings.Repeat("-", 97))

	for _, t := range entries {
		status := "Active"
		if !t.Active {
			status = "Revoked"
		}
		lastUsed := "Never"
		if t.LastUsed != nil {
			lastUsed = strings.Replace(*t.LastUsed, "T", " ", 1)
			if len(lastUsed) > 16 {
				lastUsed = lastUsed[:16]
			}
		}
		callsign := t.Callsign
		if callsign == "" {
			callsign = "-"
		}
		fmt.Printf("%-25s %-10s %-10s %-10d %-20s %-12s\n", t.Name, callsign, status, t.SessionsCount, lastUsed, t.TokenShort)
	}
	fmt.Println()
}

func cmdRevoke(store *auth.Store, positional []string) {
	token := requireToken(positional)
	found, err := store.Revoke(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !found {
		fmt.Fprintln(os.Stderr, "Token not found.")
		os.Exit(1)
	}
	fmt.Println("Token revoked.")
}

func cmdDelete(store *auth.Store, positional []string) {
	token := requireToken(positional)
	found, err := store.Delete(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !found {
		fmt.Fprintln(os.Stderr, "Token not found.")
		os.Exit(1)
	}
	fmt.Println("Token deleted.")
}

func requireToken(positional []string) string {
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "error: exactly one token argument is required")
		os.Exit(1)
	}
	return positional[0]
}
