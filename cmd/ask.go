package cmd

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wikirag/wikirag/internal/app"
	"github.com/wikirag/wikirag/internal/config"
	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/prompt"
	"github.com/wikirag/wikirag/internal/session"
)

// runAsk answers a single question and exits. Intended for scripts and
// quick checks; the interactive experience lives in runCLI.
func runAsk(logger log.Logger, args []string) error {
	flags := flag.NewFlagSet("ask", flag.ContinueOnError)
	style := flags.String("style", "", "response style: "+styleList())
	showSources := flags.Bool("sources", false, "print the Wikipedia context used for the answer")
	if err := flags.Parse(args); err != nil {
		return err
	}

	question := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if question == "" {
		return fmt.Errorf("usage: wikirag ask [--style %s] <question>", styleList())
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *style == "" {
		*style = cfg.Style
	}
	if !prompt.Valid(*style) {
		return fmt.Errorf("unknown style %q (available: %s)", *style, styleList())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("application close error", "error", closeErr)
		}
	}()

	answer, err := a.Bot.Ask(ctx, question, *style)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)

	if answer.Article != "" {
		fmt.Println()
		fmt.Printf("Source: Wikipedia, %s\n", answer.Article)
	}
	if *showSources && len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println("Context:")
		fmt.Println(prompt.FormatPreview(answer.Sources, 500))
	}

	if err := a.Sessions.Append(session.Record{
		Question: question,
		Style:    *style,
		Article:  answer.Article,
		Answer:   answer.Text,
	}); err != nil {
		logger.Warn("failed to record transcript", "error", err)
	}

	return nil
}
