package main

import (
	"database/sql"
	"fmt"
	"os"

	"thriftgram/migrations"
	"thriftgram/pkg/config"
	"thriftgram/pkg/database"
	"thriftgram/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New().With("service", "migrate")

	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the ThriftGram database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "read migrations from this directory instead of the embedded set",
				EnvVars: []string{"MIGRATIONS_DIR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withDB(func(c *cli.Context, db *sql.DB, dir string) error {
					if err := goose.UpContext(c.Context, db, dir); err != nil {
						return fmt.Errorf("failed to run migrations: %w", err)
					}
					log.Info("Migrations applied successfully")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the latest migration",
				Action: withDB(func(c *cli.Context, db *sql.DB, dir string) error {
					if err := goose.DownContext(c.Context, db, dir); err != nil {
						return fmt.Errorf("failed to rollback migrations: %w", err)
					}
					log.Info("Migrations rolled back successfully")
					return nil
				}),
			},
			{
				Name:  "reset",
				Usage: "roll back every migration",
				Action: withDB(func(c *cli.Context, db *sql.DB, dir string) error {
					return goose.ResetContext(c.Context, db, dir)
				}),
			},
			{
				Name:  "status",
				Usage: "print the state of each migration",
				Action: withDB(func(c *cli.Context, db *sql.DB, dir string) error {
					return goose.StatusContext(c.Context, db, dir)
				}),
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: withDB(func(c *cli.Context, db *sql.DB, dir string) error {
					return goose.VersionContext(c.Context, db, dir)
				}),
			},
			{
				Name:      "create",
				Usage:     "create a new SQL migration",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return cli.Exit("Name is required for create command", 1)
					}
					dir := c.String("dir")
					if dir == "" {
						dir = "migrations"
					}
					// create writes to disk, never into the embedded set
					goose.SetBaseFS(nil)
					if err := goose.Create(nil, dir, name, "sql"); err != nil {
						return fmt.Errorf("failed to create migration: %w", err)
					}
					log.Info("Created migration: %s", name)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

// withDB opens the configured database and points goose at the migrations
// before running action.
func withDB(action func(c *cli.Context, db *sql.DB, dir string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := sql.Open("postgres", database.DSN(cfg))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("failed to set dialect: %w", err)
		}

		dir := c.String("dir")
		if dir == "" {
			goose.SetBaseFS(migrations.FS)
			dir = "."
		}
		return action(c, db, dir)
	}
}
