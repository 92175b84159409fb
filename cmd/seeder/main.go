// cmd/seeder/main.go
package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/config"
	"github.com/unclebandit/dripline/internal/db"
	"github.com/unclebandit/dripline/internal/logger"
)

func main() {
	schemaOnly := flag.Bool("schema-only", false, "apply db/schema.sql without seed data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).Named("seeder")
	defer log.Sync()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.Database.Postgres)
	if err != nil {
		log.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	files := []string{"db/schema.sql"}
	if !*schemaOnly {
		files = append(files, "seed/contacts.sql", "seed/campaigns.sql")
	}
	if err := db.ExecFiles(ctx, conn, files...); err != nil {
		log.Fatal("seed", zap.Error(err))
	}
	log.Info("database seeding completed", zap.Strings("files", files))
}
