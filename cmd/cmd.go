// Package cmd provides CLI commands for wikirag.
//
// Commands:
//   - cli: Interactive terminal chat with Bubble Tea TUI
//   - ask: One-shot question answering for scripts and pipes
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/prompt"
)

// Execute is the main entry point for the wikirag CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "cli":
		return runCLI(logger)
	case "ask":
		return runAsk(logger, os.Args[2:])
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("wikirag - Wikipedia-grounded question answering in your terminal")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  wikirag cli                      Start interactive chat mode")
	fmt.Println("  wikirag ask [--style s] <q>      Answer one question and exit")
	fmt.Println("  wikirag --version                Show version information")
	fmt.Println("  wikirag --help                   Show this help")
	fmt.Println()
	fmt.Println("CLI Commands (in interactive mode):")
	fmt.Println("  /help              Show available commands")
	fmt.Println("  /style [name]      Show or switch the response style")
	fmt.Println("  /clear             Clear conversation history")
	fmt.Println("  /exit, /quit       Exit wikirag")
	fmt.Println()
	fmt.Printf("Response Styles:\n")
	fmt.Printf("  %s\n", styleList())
	fmt.Println()
	fmt.Println("Shortcuts:")
	fmt.Println("  Ctrl+D             Exit wikirag")
	fmt.Println("  Ctrl+C             Cancel current input")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  KONG_API_TOKEN     Required: AI gateway token (also read from .env)")
	fmt.Println("  KONG_BASE_URL      Required: AI gateway base URL")
	fmt.Println("  WIKIRAG_STYLE      Optional: default response style")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
}

func styleList() string {
	out := ""
	for i, s := range prompt.Styles() {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
