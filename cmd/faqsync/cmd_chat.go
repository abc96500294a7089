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
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/FaqSync/pkg/ux"
	"github.com/AleutianAI/FaqSync/services/faq/chat"
	"github.com/AleutianAI/FaqSync/services/faq/sync"
)

func runChat(cmd *cobra.Command, args []string) {
	p, err := buildPipeline()
	if err != nil {
		log.Fatalf("Error building pipeline: %v", err)
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if !noSync {
		preSync(ctx, p)
	}

	runner := NewAssistantRunner(buildAssistant(p), NewInteractiveInputReader(50))
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Chat error: %v", err)
	}
}

func runAsk(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")

	p, err := buildPipeline()
	if err != nil {
		log.Fatalf("Error building pipeline: %v", err)
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if !noSync {
		preSync(ctx, p)
	}

	assistant := buildAssistant(p)

	spin := ux.NewSpinner("Thinking")
	spin.Start()
	answer, err := assistant.Ask(ctx, question)
	spin.Stop()
	if err != nil {
		log.Fatalf("Error answering question: %v", err)
	}

	fmt.Println(answer.Render())
}

// buildAssistant wires the question-answering assistant from the pipeline
// and the loaded configuration.
func buildAssistant(p *pipeline) *chat.Assistant {
	assistant, err := chat.NewAssistant(p.client, p.embedder, p.documents, chat.AssistantConfig{
		ChatModel:    cfg.OpenAI.ChatModel,
		SystemPrompt: cfg.Chat.SystemPrompt,
		TopK:         cfg.Chat.TopK,
	}, logger)
	if err != nil {
		log.Fatalf("Error building assistant: %v", err)
	}
	return assistant
}

// preSync reconciles the store before answering questions, so answers
// reflect the corpus on disk. Fatal sync failures stop the command;
// degraded runs only warn.
func preSync(ctx context.Context, p *pipeline) {
	orch, err := sync.NewOrchestrator(sync.OrchestratorConfig{
		DataDir: corpusDir(),
	}, p.scanner, p.documents, logger)
	if err != nil {
		log.Fatalf("Error building orchestrator: %v", err)
	}

	report, err := orch.Run(ctx)
	if err != nil {
		printReport(report)
		os.Exit(1)
	}

	if report.Scan != nil {
		ux.Info(fmt.Sprintf("Store synced with %d corpus records (%d inserted, %d deleted)",
			report.Scan.UniqueRecords, report.Inserted, report.Deleted))
	}
	if report.Outcome == sync.OutcomeDegraded {
		ux.Warning("Sync converged with gaps; answers may miss recent edits")
	}
}
