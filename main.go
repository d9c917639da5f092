// coach TUI - a terminal voice and text client for Best Fit Coach.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/audio"
	"github.com/bestfit-labs/coach-tui/internal/config"
	"github.com/bestfit-labs/coach-tui/internal/history"
	"github.com/bestfit-labs/coach-tui/internal/identity"
	"github.com/bestfit-labs/coach-tui/internal/model"
	"github.com/bestfit-labs/coach-tui/internal/streak"
	"github.com/bestfit-labs/coach-tui/internal/ui/chat"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--version", "-v":
			fmt.Printf("coach %s (%s, built %s)\n", Version, GitCommit, BuildDate)
			return
		case "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown argument: %s\n\n", arg)
			printUsage()
			os.Exit(2)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: coach [flags]

A terminal client for Best Fit Coach. Type to chat, Ctrl+V to talk.

Flags:
  -v, --version   print version and exit
  -h, --help      print this help and exit

Configuration lives in ~/.coach/config.toml (override the directory
with COACH_CONFIG_DIR). See COACH_BACKEND_URL and friends for
environment overrides.`)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Local identity survives restarts; the server never overrides it.
	identPath, err := config.IdentityPath()
	if err != nil {
		return err
	}
	store, err := identity.NewFileStore(identPath)
	if err != nil {
		return fmt.Errorf("failed to open identity store: %w", err)
	}
	ident, err := identity.NewManager(store)
	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}

	tracker := streak.New(store)
	days, err := tracker.Touch()
	if err != nil {
		// Cosmetic; a broken streak never blocks startup.
		days = 0
	}

	client := api.NewClient(cfg.Backend.URL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Backend.MaxRetries).
		WithRateLimit(cfg.Backend.RequestsPerSec)

	conv := model.NewConversation()

	recorder := audio.NewExecRecorder(cfg.Voice.RecordCommand,
		time.Duration(cfg.Voice.MaxRecordSecs)*time.Second)
	playback := audio.NewPlaybackManager(audio.NewExecPlayer(cfg.Voice.PlayCommand))

	dispatcher := voice.NewDispatcher(client, playback, ident, conv, cfg.Voice.Name)
	dispatcher.SetAutoSpeak(cfg.Voice.AutoSpeak)
	loop := voice.New(recorder, playback, client, ident, conv, cfg.Voice.Name)

	var hist *history.Store
	if cfg.History.Enabled {
		dbPath, err := cfg.HistoryDBPath()
		if err != nil {
			return err
		}
		hist, err = history.Open(dbPath, cfg.History.MaxSessions)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer hist.Close()
	}

	m := chat.New(chat.Options{
		Config:     cfg,
		Client:     client,
		Identity:   ident,
		Conv:       conv,
		Dispatcher: dispatcher,
		Loop:       loop,
		Playback:   playback,
		History:    hist,
		Streak:     days,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Hot-reload config edits into the running program.
	watcher, err := config.NewWatcher(500*time.Millisecond, func(next *config.Config) {
		p.Send(chat.ConfigReloadedMsg{Config: next})
	})
	if err == nil {
		if err := watcher.Watch(); err != nil {
			watcher.Close()
		} else {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run program: %w", err)
	}
	return nil
}
