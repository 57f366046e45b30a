package main

import (
	"log"
	"net/http"

	"damage-eval/api/internal/app"
	"damage-eval/api/internal/config"
	handle "damage-eval/api/internal/handle"
	"damage-eval/api/internal/httpserver"
)

func main() {
	cfg := config.Load() // PORT из окружения, по умолчанию 8000

	det, _, cleanup := app.BuildDetector(cfg)

	mux := http.NewServeMux()
	handle.New(det, cfg.DefaultModel, cfg.MaxUploadMB).Register(mux)

	srv := httpserver.New(":"+cfg.Port, mux, "ok")
	log.Printf("damage-api: provider=%t models=%v", det.HasProvider(), det.Catalog().Models())
	err := httpserver.Start(srv)
	cleanup()
	log.Fatal(err)
}
