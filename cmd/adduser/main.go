package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finance-tracker/internal/accounts"
	"finance-tracker/internal/apperr"
	"finance-tracker/internal/storage"

	"golang.org/x/term"
)

const defaultDatabase = "finance_tracker.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbURL := fs.String("db", "", "Database file path or URL (default $DATABASE_URL, $DB_PATH or "+defaultDatabase+")")

	if err := fs.Parse(args); err != nil {
		return err
	}

	name := strings.TrimSpace(*username)
	if name == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-db <path or url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	db, err := storage.NewDB(resolveDatabase(*dbURL))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	account, err := accounts.NewService(db, nil).Register(context.Background(), name, password)
	if errors.Is(err, apperr.ErrDuplicateUsername) {
		return fmt.Errorf("account %s already exists", name)
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Fprintf(stdout, "Account %s created successfully with ID %d\n", account.Username, account.ID)
	return nil
}

// resolveDatabase prefers the flag, then the server's environment variables.
func resolveDatabase(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	for _, env := range []string{"FINANCE_DATABASE_URL", "DATABASE_URL", "DB_PATH"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return defaultDatabase
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
