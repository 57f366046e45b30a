// Package app собирает Detector из конфига; общий для HTTP-сервиса и бота.
package app

import (
	"context"
	"log"

	"damage-eval/api/internal/catalog"
	"damage-eval/api/internal/config"
	"damage-eval/api/internal/detect"
	"damage-eval/api/internal/gemini"
	"damage-eval/api/internal/store"
	"damage-eval/api/internal/util"
)

// BuildDetector: клиент Gemini (если есть ключ), каталог, аудит в Postgres (если есть DSN).
// repo == nil, если БД не настроена. cleanup закрывает клиент и БД.
func BuildDetector(cfg *config.Config) (*detect.Detector, *store.DetectionRepo, func()) {
	ctx := context.Background()
	var closers []func()

	var provider detect.Provider
	var lister catalog.Lister
	if cfg.GoogleAPIKey != "" {
		cl, err := gemini.New(ctx, cfg.GoogleAPIKey)
		if err != nil {
			log.Printf("failed to initialize Gemini client: %v", err)
		} else {
			provider, lister = cl, cl
			closers = append(closers, func() { _ = cl.Close() })
		}
	} else {
		log.Printf("GOOGLE_API_KEY is not set: all detections will be simulated")
	}

	lctx, cancel := context.WithTimeout(ctx, cfg.ModelListTimeout)
	cat := catalog.Init(lctx, lister)
	cancel()

	prompt, err := util.LoadPrompt(cfg.PromptFile, detect.DefaultPrompt)
	if err != nil {
		log.Printf("prompt: %v; using built-in", err)
	}

	opt := detect.Options{
		Prompt:   prompt,
		Timeout:  cfg.DetectTimeout,
		Attempts: cfg.ProviderAttempts,
	}

	var repo *store.DetectionRepo
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("audit disabled: %v", err)
		} else {
			if err := store.EnsureSchema(ctx, db); err != nil {
				log.Printf("audit schema: %v", err)
			}
			log.Printf("db connected: %s", store.SafeDSNSummary(cfg.DatabaseURL))
			repo = store.NewDetectionRepo(db)
			opt.Recorder = repo
			closers = append(closers, func() { _ = db.Close() })
		}
	}

	det := detect.New(cat, provider, opt)
	return det, repo, func() {
		for _, c := range closers {
			c()
		}
	}
}
