// Package main applies the SQL migrations in lexical order.
// Usage: migrate [--dir migrations]
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockdocs/internal/config"
)

func main() {
	dir := "migrations"
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--dir" && i+1 < len(os.Args) {
			dir = os.Args[i+1]
			i++
		}
	}

	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		fmt.Printf("Error: connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	entries, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		fmt.Printf("Error: list migrations: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(entries)

	if len(entries) == 0 {
		fmt.Printf("No migrations found in %s\n", dir)
		return
	}

	for _, path := range entries {
		sql, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("Error: read %s: %v\n", path, err)
			os.Exit(1)
		}

		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			fmt.Printf("Error: apply %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Applied %s\n", filepath.Base(path))
	}

	fmt.Println("Done")
}
