package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"quill/internal/config"
	"quill/internal/notestore"
	"quill/internal/storage"
	"quill/internal/ui"
)

func main() {
	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal is owned by the UI, so logging goes to a file or
	// nowhere at all.
	logger := zerolog.Nop()
	if cfg.LogPath != "" {
		logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Printf("failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		logger = zerolog.New(logFile).With().Timestamp().Logger()
	}

	var snap *storage.Store
	var opts []notestore.Option
	if cfg.DefaultFolder != "" {
		opts = append(opts, notestore.WithDefaultFolder(cfg.DefaultFolder))
	}
	if cfg.DBPath != "" {
		snap, err = storage.Open(cfg.DBPath)
		if err != nil {
			fmt.Printf("failed to open database: %v\n", err)
			os.Exit(1)
		}
		defer snap.Close()

		folders, notes, err := snap.Load()
		if err != nil {
			fmt.Printf("failed to load notes: %v\n", err)
			os.Exit(1)
		}
		if len(folders) > 0 {
			opts = append(opts, notestore.WithFolders(folders), notestore.WithNotes(notes))
		}
	}

	store := notestore.New(opts...)
	logger.Info().Int("notes", len(store.Notes())).Int("folders", len(store.Folders())).Msg("session start")

	if err := ui.Run(store, snap, cfg, logger); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}

	if snap != nil {
		if err := snap.Replace(store.Folders(), store.Notes()); err != nil {
			fmt.Printf("failed to save notes: %v\n", err)
			os.Exit(1)
		}
	}
	logger.Info().Msg("session end")
}
