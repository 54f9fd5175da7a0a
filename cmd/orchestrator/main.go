package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vidfetch/orchestrator/internal/api"
	"github.com/vidfetch/orchestrator/internal/config"
	"github.com/vidfetch/orchestrator/internal/job"
	"github.com/vidfetch/orchestrator/internal/media"
	"github.com/vidfetch/orchestrator/internal/runner"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	cfg := config.Load()

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalf("create output directory: %v", err)
	}

	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		outDir = cfg.OutputDir
	}

	ytdlp := media.NewYtDlp(cfg.YtDlpPath, cfg.FetchTimeout)
	ffmpeg := media.NewFFmpeg(cfg.FFmpegPath)

	store := job.NewStore()
	run := runner.New(store, ytdlp, ytdlp, ffmpeg, ffmpeg.Available, outDir)

	sweeper := job.NewSweeper(store, cfg.SweepInterval, cfg.JobRetention)
	sweeper.Start()
	defer sweeper.Stop()

	router := api.NewRouter(cfg, store, ytdlp, run, ffmpeg.Available)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("downloads directory: %s", outDir)
	if ffmpeg.Available() {
		log.Printf("ffmpeg found: merging and trimming enabled")
	} else {
		log.Printf("warning: ffmpeg not found, trimming and stream merging disabled")
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-done
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown error: %v", err)
	}

	log.Println("server stopped")
}
