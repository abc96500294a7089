// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/FaqSync/pkg/logging"
	"github.com/AleutianAI/FaqSync/services/faq/config"
)

// --- Global Command Variables ---
var (
	configPath string
	dataDir    string // CLI override for corpus.data_dir
	dryRun     bool
	watchMode  bool
	force      bool
	noSync     bool

	// cfg and logger are populated by the root PersistentPreRun before any
	// subcommand runs.
	cfg    *config.Config
	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "faqsync",
		Short: "Keep a Weaviate document store in sync with a folder of FAQ files",
		Long: `FaqSync scans a folder of question-and-answer text files, derives a
content hash for every pair, and reconciles a Weaviate class against
that set: stale documents are deleted, new ones are embedded and
inserted, unchanged ones are never touched. A built-in chat assistant
answers questions from whatever the store currently holds.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loaded, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("Error loading configuration: %v", err)
			}
			cfg = loaded

			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				log.Fatalf("Error parsing log level: %v", err)
			}
			logger = logging.New(logging.Config{
				Level:   level,
				LogDir:  cfg.Log.Dir,
				Service: "faqsync",
				JSON:    cfg.Log.JSON,
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Close()
			}
		},
	}

	// --- Sync ---
	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the document store with the FAQ corpus",
		Run:   runSync, // Defined in cmd_sync.go
	}

	// --- Stats ---
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show corpus and store counts without modifying anything",
		Run:   runStats, // Defined in cmd_stats.go
	}

	// --- Wipe ---
	wipeCmd = &cobra.Command{
		Use:   "wipe",
		Short: "DANGER: Deletes every stored document and recreates the schema",
		Run:   runWipe, // Defined in cmd_wipe.go
	}

	// --- Chat / Ask ---
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive question session against the synced store",
		Run:   runChat, // Defined in cmd_chat.go
	}
	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the answer with its sources",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk, // Defined in cmd_chat.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a faqsync.yaml (default: ./faqsync.yaml when present)")

	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&dataDir, "data-dir", "", "Corpus directory (overrides configuration)")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print the plan without touching the store")
	syncCmd.Flags().BoolVar(&watchMode, "watch", false, "Stay running and re-sync when the corpus changes")

	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&dataDir, "data-dir", "", "Corpus directory (overrides configuration)")

	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().BoolVar(&force, "force", false,
		"Skip the confirmation prompt. Required when stdin is not a terminal.")

	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&noSync, "no-sync", false, "Skip the reconciliation pass before the chat loop")

	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&noSync, "no-sync", false, "Skip the reconciliation pass before answering")
}
