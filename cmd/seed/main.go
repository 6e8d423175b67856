// Seed loads raw extractor responses from fixture files and stores the
// normalized canonical records. Useful for populating a fresh database
// with analyzable data without calling the vision API.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ledgerlens/internal/extract"
	"ledgerlens/internal/repository"
	"ledgerlens/pkg/config"
	"ledgerlens/pkg/logger"
	"ledgerlens/pkg/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	recordRepo := repository.NewRecordRepository(db, appLogger)
	if err := recordRepo.EnsureSchema(ctx); err != nil {
		appLogger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	seedDir := filepath.Join("cmd", "seed", "fixtures")
	if len(os.Args) > 1 {
		seedDir = os.Args[1]
	}

	appLogger.Info("Seeding records from fixtures", zap.String("dir", seedDir))

	opts := extract.Options{ConvertPercents: cfg.Extract.ConvertPercents}
	var seeded, failed int

	err = filepath.Walk(seedDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".json" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			appLogger.Warn("Failed to read fixture", zap.String("file", path), zap.Error(err))
			return nil
		}

		rec, decodeErr := extract.NormalizeResponse(string(raw), opts)
		if decodeErr != nil {
			// Still stored; the record is schema-complete with defaults.
			failed++
			appLogger.Warn("Fixture contained no parseable JSON",
				zap.String("file", path),
				zap.String("doc_id", rec.DocID),
			)
		}

		if err := recordRepo.Create(ctx, rec, uuid.Nil); err != nil {
			appLogger.Error("Failed to store record", zap.String("file", path), zap.Error(err))
			return nil
		}
		seeded++
		return nil
	})
	if err != nil {
		appLogger.Fatal("Seeding failed", zap.Error(err))
	}

	appLogger.Info("Seeding completed",
		zap.Int("records", seeded),
		zap.Int("defaulted", failed),
	)
}
