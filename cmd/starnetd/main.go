package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/salmanhiro/starnet/adapters/columnar"
	"github.com/salmanhiro/starnet/adapters/regressor"
	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal/api"
	"github.com/salmanhiro/starnet/internal/config"
	"github.com/salmanhiro/starnet/internal/pipeline"
	"github.com/salmanhiro/starnet/internal/rng"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()
	rngAdapter := rng.NewAdapter()
	store := columnar.NewStore()
	service := pipeline.NewService(cfg, store, rngAdapter)

	stream, err := rngAdapter.SeededStream(ctx, "baseline", cfg.Data.Seed)
	if err != nil {
		log.Fatalf("rng setup failed: %v", err)
	}
	model := regressor.NewRidge(1.0, stream)

	result, err := service.Run(ctx, cfg.Paths.ArchiveFile, model)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}
	log.Printf("trained baseline on %d spectra, cross-validation MAE %v", result.TrainLen, result.CVMAE)

	set, err := store.Load(ctx, cfg.Paths.ArchiveFile, dataset.DefaultLabelColumns())
	if err != nil {
		log.Fatalf("archive reload failed: %v", err)
	}
	bins := set.Spectra[0].Bins()

	server := api.NewServer(service, model, bins)
	addr := ":" + cfg.Server.Port
	log.Printf("prediction service listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
