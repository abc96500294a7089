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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/FaqSync/pkg/ux"
	"github.com/AleutianAI/FaqSync/services/faq/chat"
)

// =============================================================================
// Input Readers
// =============================================================================

// InputReader abstracts line-oriented user input so the chat loop can be
// tested without a terminal.
type InputReader interface {
	// ReadLine reads a single line, trimmed. Returns io.EOF when the
	// input source is exhausted.
	ReadLine() (string, error)
}

// PromptingInputReader is implemented by readers that draw their own
// prompt. The runner checks for it to avoid double-prompting.
type PromptingInputReader interface {
	InputReader

	// SetPrompt sets the prompt drawn before input.
	SetPrompt(prompt string)
}

// StdinReader reads lines from os.Stdin. Used when stdin is piped.
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader creates a StdinReader wrapping os.Stdin.
func NewStdinReader() *StdinReader {
	return &StdinReader{reader: bufio.NewReader(os.Stdin)}
}

// ReadLine reads until newline and returns the trimmed line.
func (r *StdinReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// InteractiveInputReader (with history)
// =============================================================================

// InteractiveInputReader reads input through bubbletea with up/down arrow
// history navigation and line editing. History lives in memory only.
type InteractiveInputReader struct {
	history      []string
	historyIndex int
	maxHistory   int
	prompt       string
}

// NewInteractiveInputReader creates an interactive reader with history.
// Falls back to a StdinReader when stdin is not a terminal (piped input,
// CI).
func NewInteractiveInputReader(maxHistory int) InputReader {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinReader()
	}

	return &InteractiveInputReader{
		history:      make([]string, 0, maxHistory),
		historyIndex: -1,
		maxHistory:   maxHistory,
		prompt:       "> ",
	}
}

// SetPrompt implements PromptingInputReader.
func (r *InteractiveInputReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadLine runs one bubbletea input program and returns the submitted
// line. Enter submits, Ctrl+C clears the line, Ctrl+D returns io.EOF.
// Non-empty submissions are added to the history.
func (r *InteractiveInputReader) ReadLine() (string, error) {
	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80

	m := inputModel{
		textInput:    ti,
		history:      r.history,
		historyIndex: -1,
	}

	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(inputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}

	// Ctrl+D on an empty line is EOF
	if result.cancelled && result.textInput.Value() == "" {
		return "", io.EOF
	}

	input := strings.TrimSpace(result.textInput.Value())
	if input != "" {
		r.addToHistory(input)
	}
	return input, nil
}

// addToHistory appends an input, skipping duplicates of the most recent
// entry and trimming to maxHistory.
func (r *InteractiveInputReader) addToHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}

	r.history = append(r.history, input)
	if len(r.history) > r.maxHistory {
		r.history = r.history[1:]
	}
}

// inputModel is the bubbletea model for one line of interactive input.
type inputModel struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string // stashed input while navigating history
	done         bool
	cancelled    bool
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlC:
			// Clear input and return empty
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			m.cancelled = true
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.history) == 0 {
				return m, nil
			}
			// Stash the in-progress input when first entering history
			if m.historyIndex == -1 {
				m.currentInput = m.textInput.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}
			m.textInput.SetValue(m.history[m.historyIndex])
			m.textInput.CursorEnd()
			return m, nil

		case tea.KeyDown:
			if m.historyIndex == -1 {
				return m, nil
			}
			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.textInput.SetValue(m.history[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.textInput.SetValue(m.currentInput)
			}
			m.textInput.CursorEnd()
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// MockInputReader (for tests)
// =============================================================================

// MockInputReader returns predetermined inputs in order, then io.EOF.
type MockInputReader struct {
	inputs []string
	index  int
}

// NewMockInputReader creates a reader over a fixed input sequence.
func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{inputs: inputs}
}

// ReadLine returns the next input, or io.EOF when exhausted.
func (r *MockInputReader) ReadLine() (string, error) {
	if r.index >= len(r.inputs) {
		return "", io.EOF
	}
	input := r.inputs[r.index]
	r.index++
	return input, nil
}

// =============================================================================
// AssistantRunner
// =============================================================================

// asker is the assistant surface the runner needs. *chat.Assistant
// implements it.
type asker interface {
	Ask(ctx context.Context, question string) (*chat.Answer, error)
}

// AssistantRunner drives the interactive question loop: prompt, read,
// ask, render, repeat until "exit", "quit", EOF, or cancellation.
type AssistantRunner struct {
	assistant asker
	input     InputReader
	prompt    string
}

// NewAssistantRunner creates a runner over the given assistant and input
// source.
func NewAssistantRunner(assistant asker, input InputReader) *AssistantRunner {
	return &AssistantRunner{
		assistant: assistant,
		input:     input,
		prompt:    "> ",
	}
}

// Run executes the question loop until exit, EOF, or ctx cancellation.
//
// Description:
//
//	Reads one question per iteration and renders the assistant's answer
//	with its sources. Empty lines are skipped. "exit" and "quit" end the
//	loop with a nil error, as does exhausted input. A question that fails
//	is reported and the loop continues; only input errors and context
//	cancellation end the loop with a non-nil error.
//
// Inputs:
//
//	ctx - Context for cancellation
//
// Outputs:
//
//	error - nil on normal exit, ctx.Err() on cancellation, or a read error
func (r *AssistantRunner) Run(ctx context.Context) error {
	ux.Title("FaqSync Chat")
	ux.Muted(`Answers come from the synced FAQ store. Type "exit" or "quit" to leave.`)
	fmt.Println()

	for {
		// Check for cancellation before blocking on input
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p, ok := r.input.(PromptingInputReader); ok {
			p.SetPrompt(r.prompt)
		} else {
			fmt.Print(r.prompt)
		}

		input, err := r.input.ReadLine()
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		if input == "" {
			continue
		}

		// Bubbletea clears its render area on exit, so restore the line
		if _, interactive := r.input.(*InteractiveInputReader); interactive {
			fmt.Printf("%s%s\n", r.prompt, input)
		}

		if isExitCommand(input) {
			return nil
		}

		spin := ux.NewSpinner("Thinking")
		spin.Start()
		answer, err := r.assistant.Ask(ctx, input)
		spin.Stop()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ux.Error(fmt.Sprintf("Could not answer: %v", err))
			continue
		}

		fmt.Println(answer.Render())
		fmt.Println()
	}
}

// isExitCommand checks if the input is an exit command.
func isExitCommand(input string) bool {
	return input == "exit" || input == "quit"
}
