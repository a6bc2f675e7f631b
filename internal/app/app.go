// Package app wires the application together: Genkit with the configured
// AI provider, the Wikipedia client, the chunking pipeline and the bot,
// plus optional trace exporting. Entry points call Setup once and work
// with the returned App.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/wikirag/wikirag/internal/chat"
	"github.com/wikirag/wikirag/internal/chunk"
	"github.com/wikirag/wikirag/internal/config"
	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/session"
	"github.com/wikirag/wikirag/internal/wiki"
)

// App is the core application container.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Wiki     *wiki.Client
	Splitter *chunk.Splitter
	Bot      *chat.Bot
	Flow     *chat.Flow
	Sessions *session.Store

	otelCleanup func()
}

// Close gracefully shuts down the application.
func (a *App) Close() error {
	a.Logger.Debug("shutting down application")

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
