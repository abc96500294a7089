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
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/FaqSync/pkg/ux"
)

// runWipe drops the document class and recreates it empty. Interactive
// sessions get a confirmation prompt; scripts must pass --force.
func runWipe(cmd *cobra.Command, args []string) {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	if !force {
		if !interactive {
			fmt.Println("Error: the --force flag is required when stdin is not a terminal.")
			fmt.Println("Example: faqsync wipe --force")
			os.Exit(1)
		}

		var confirmed bool
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("Delete every object in class %q?", cfg.Store.ClassName)).
			Description("The class is dropped and recreated empty. The next sync rebuilds it from the corpus.").
			Affirmative("Wipe it").
			Negative("Cancel").
			Value(&confirmed)
		if err := confirm.Run(); err != nil {
			log.Fatalf("Error reading confirmation: %v", err)
		}
		if !confirmed {
			ux.Muted("Aborted.")
			return
		}
	}

	p, err := buildPipeline()
	if err != nil {
		log.Fatalf("Error building pipeline: %v", err)
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()

	err = ux.WithSpinner("Wiping document store", func() error {
		if err := p.documents.DropClass(ctx); err != nil {
			return err
		}
		return p.documents.EnsureSchema(ctx)
	})
	if err != nil {
		os.Exit(1)
	}

	ux.Muted("The next sync rebuilds the store from the corpus.")
}
