package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v3"

	"github.com/crime-analysis/backend/internal/config"
	"github.com/crime-analysis/backend/internal/database/migrations"
)

func main() {
	root := &cli.Command{
		Name:  "migrate",
		Usage: "apply or roll back the database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withDB(ctx, func(db *sql.DB) error { return goose.UpContext(ctx, db, ".") })
				},
			},
			{
				Name:  "down",
				Usage: "roll back the latest migration",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withDB(ctx, func(db *sql.DB) error { return goose.DownContext(ctx, db, ".") })
				},
			},
			{
				Name:  "status",
				Usage: "print the state of every migration",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withDB(ctx, func(db *sql.DB) error { return goose.StatusContext(ctx, db, ".") })
				},
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return withDB(ctx, func(db *sql.DB) error { return goose.UpContext(ctx, db, ".") })
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func withDB(ctx context.Context, fn func(*sql.DB) error) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetBaseFS(migrations.Files)
	return fn(db)
}
