package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/benchline/api/internal/config"
	"github.com/benchline/api/internal/database"
)

func main() {
	// Flags for customization
	username := flag.String("user", "", "Username to promote")
	revoke := flag.Bool("revoke", false, "Revoke admin rights instead of granting them")
	author := flag.Bool("author", false, "Toggle author rights instead of admin rights")

	flag.Parse()

	if *username == "" {
		fmt.Fprintf(os.Stderr, "Usage: grant-admin -user <username> [-revoke] [-author]\n")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, database.Config{DSN: cfg.Database.DSN()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	column := "is_admin"
	if *author {
		column = "is_author"
	}
	value := !*revoke

	res, err := db.ExecContext(ctx,
		fmt.Sprintf("UPDATE users SET %s = $1 WHERE username = $2", column),
		value, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error updating user: %v\n", err)
		os.Exit(1)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading result: %v\n", err)
		os.Exit(1)
	}
	if rows == 0 {
		fmt.Fprintf(os.Stderr, "No user named %q\n", *username)
		os.Exit(1)
	}

	fmt.Printf("Updated %s: %s = %v\n", *username, column, value)
}
