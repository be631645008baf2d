package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/leodahl/chorus/internal/config"
	"github.com/leodahl/chorus/internal/handlers"
	"github.com/leodahl/chorus/internal/lyrics"
	"github.com/leodahl/chorus/internal/playlist"
	"github.com/leodahl/chorus/internal/repository"
	"github.com/leodahl/chorus/internal/resolver"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	db, err := repository.OpenDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	repo := repository.NewRepo(db)

	store, err := playlist.New(filepath.Join(cfg.DataDir, "playlists.json"))
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	res := resolver.New(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	lyr := lyrics.New(cfg.GeniusToken)
	bot := handlers.NewBot(cfg, repo, store, res, lyr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := bot.Run(ctx); err != nil {
		log.Fatal(err)
	}
	slog.Info("shut down")
}
