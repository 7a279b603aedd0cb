// Command ingest bulk-imports a directory of images into the media catalog.
// It shares storage and database configuration with the server, so assets
// ingested here are immediately renderable.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/simplecms/mediacore/pkg/mediacore"
	"github.com/simplecms/mediacore/pkg/mediacore/config"
)

type ingestConfig struct {
	Dir        string `env:"INGEST_DIR" env-default:"."`
	UploadedBy string `env:"INGEST_UPLOADED_BY" env-default:"ingest"`
}

var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var cfg ingestConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("failed to read configuration", "error", err)
		os.Exit(1)
	}
	if len(os.Args) > 1 {
		cfg.Dir = os.Args[1]
	}

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	components, err := serverConfig.Build()
	if err != nil {
		slog.Error("failed to build components", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var ingested, skipped, failed int

	err = filepath.WalkDir(cfg.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		mime, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			skipped++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("unreadable file", "path", path, "error", err)
			failed++
			return nil
		}

		asset, err := components.Service.Upload(ctx, mediacore.UploadRequest{
			Data:       data,
			FileName:   d.Name(),
			ClientMime: mime,
			UploadedBy: cfg.UploadedBy,
		})
		if err != nil {
			slog.Warn("ingest failed", "path", path, "error", err)
			failed++
			return nil
		}

		slog.Info("ingested", "path", path, "hash", asset.Hash, "width", asset.Width, "height", asset.Height)
		ingested++
		return nil
	})
	if err != nil {
		slog.Error("walk failed", "dir", cfg.Dir, "error", err)
		os.Exit(1)
	}

	slog.Info("done", "ingested", ingested, "skipped", skipped, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
