// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/unclebandit/church-broadcast/internal/config"
	"github.com/unclebandit/church-broadcast/internal/db"
	"github.com/unclebandit/church-broadcast/internal/logging"
)

func main() {
	var (
		dsn        = pflag.String("dsn", "", "postgres connection string (defaults to DATABASE_URL / DB_* env)")
		schemaOnly = pflag.Bool("schema-only", false, "apply the schema without seed files")
		seedFiles  = pflag.StringSlice("seed", []string{"seed/members.sql", "seed/inbound.sql"}, "seed files to execute in order")
		logLevel   = pflag.String("log-level", "INFO", "log level")
	)
	pflag.Parse()

	log := logging.New(*logLevel)
	if *dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
		*dsn = cfg.DSN()
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, *dsn)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("schema applied")
	if *schemaOnly {
		return
	}

	for _, file := range *seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Error("failed to read seed file", "file", file, "error", err)
			os.Exit(1)
		}
		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			log.Error("failed to execute seed file", "file", file, "error", err)
			os.Exit(1)
		}
		log.Info("seeded", slog.String("file", file))
	}
	fmt.Println("Database seeding completed successfully!")
}
