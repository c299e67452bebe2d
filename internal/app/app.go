// Package app wires configuration, storage, the AI gateway and the
// front-ends together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"recipe-finder/internal/config"
	"recipe-finder/internal/database"
	"recipe-finder/internal/gateway"
	"recipe-finder/internal/llm"
	"recipe-finder/internal/metrics"
	"recipe-finder/internal/search"
	"recipe-finder/internal/server"
	"recipe-finder/internal/session"
	"recipe-finder/internal/telegram"
	"recipe-finder/internal/view"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *database.DB
	closer       llm.Closer
	gateway      search.Gateway
	metricsStore *metrics.Store
	registry     *prometheus.Registry
	search       *metrics.SearchMetrics
	out          io.Writer
}

// New builds the application from cfg: it opens the database, creates the
// configured text generator and the AI gateway on top of it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	textGen, closer, err := newTextGenerator(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("text generator ready", zap.String("provider", cfg.AIProvider))

	store := metrics.NewStore(db.SQL)
	opts := []gateway.Option{
		gateway.WithUsageRecorder(store),
		gateway.WithRateLimit(cfg.GatewayRPM),
		gateway.WithRecipeCount(cfg.RecipesPerSearch),
	}
	if cfg.ImageSearchURL != "" {
		opts = append(opts, gateway.WithImageResolver(gateway.NewPageImageResolver(cfg.ImageSearchURL)))
	}
	gw := gateway.NewAIGateway(textGen, logger.Named("gateway"), opts...)

	a := newApp(cfg, logger, db, store, gw)
	a.closer = closer
	return a, nil
}

func newApp(cfg *config.Config, logger *zap.Logger, db *database.DB, store *metrics.Store, gw search.Gateway) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &App{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		gateway:      gw,
		metricsStore: store,
		registry:     reg,
		search:       metrics.NewSearchMetrics(reg),
		out:          os.Stdout,
	}
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, llm.Closer, error) {
	switch cfg.AIProvider {
	case config.ProviderGroq:
		return llm.NewGroqClient(cfg), nil, nil
	case config.ProviderGemini:
		c, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unsupported AI provider %q", cfg.AIProvider)
	}
}

// Close releases the database and the model client.
func (a *App) Close() error {
	var errs []error
	if a.closer != nil {
		errs = append(errs, a.closer.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) newSessions(ctx context.Context) *session.Manager {
	return session.NewManager(ctx, a.gateway, a.logger.Named("search"),
		session.WithTTL(a.cfg.SessionTTL),
		session.WithObserver(a.search),
		session.WithGauge(a.search),
	)
}

// Serve runs the HTTP API, and the Telegram webhook when a bot token is
// configured, until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	sessions := a.newSessions(ctx)
	defer sessions.Close()
	go sessions.Run(ctx, sweepInterval)

	opts := []server.Option{
		server.WithMetrics(a.registry),
		server.WithCookieTTL(a.cfg.SessionTTL),
	}
	if a.cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(a.cfg, sessions, a.metricsStore, a.logger.Named("telegram"))
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		opts = append(opts, server.WithHandler("/webhook", bot.Handler()))
	}

	srv := server.New(a.cfg.Port, sessions, session.NewTokenSigner(a.cfg.SessionSecret, a.cfg.SessionTTL), a.logger.Named("http"), opts...)
	return runUntilDone(ctx, srv.Start, srv.Shutdown)
}

// ServeBot runs only the Telegram webhook and a health check until ctx is
// cancelled. The browser API is not mounted.
func (a *App) ServeBot(ctx context.Context) error {
	if a.cfg.TelegramBotToken == "" {
		return fmt.Errorf("telegram bot token is not configured")
	}

	sessions := a.newSessions(ctx)
	defer sessions.Close()
	go sessions.Run(ctx, sweepInterval)

	bot, err := telegram.NewBot(a.cfg, sessions, a.metricsStore, a.logger.Named("telegram"))
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      botHandler(bot.Handler()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	start := func() error {
		a.logger.Info("Telegram webhook listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start webhook server: %w", err)
		}
		return nil
	}
	return runUntilDone(ctx, start, srv.Shutdown)
}

func botHandler(webhook http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/health"))
	r.Method(http.MethodPost, "/webhook", webhook)
	return r
}

func runUntilDone(ctx context.Context, start func() error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// SearchRecipes runs a single search and prints the outcome.
func (a *App) SearchRecipes(ctx context.Context, query string) error {
	sessions := a.newSessions(ctx)
	defer sessions.Close()

	sess := sessions.Create()
	fmt.Fprintf(a.out, "Buscando receitas para: %q...\n", query)
	<-sess.Search.Search(query)

	v := view.Project(sess.Search.State())
	switch v.Mode {
	case view.ModeHero:
		return fmt.Errorf("empty query")
	case view.ModeErrorBanner:
		fmt.Fprintln(a.out, v.Message)
		return fmt.Errorf("search failed")
	case view.ModeEmptyResults:
		fmt.Fprintln(a.out, v.Message)
		return nil
	}

	for _, card := range v.Cards {
		r := card.Recipe
		fmt.Fprintf(a.out, "\n=== %d. %s ===\n", card.Index+1, r.Name)
		if r.Description != "" {
			fmt.Fprintln(a.out, r.Description)
		}
		fmt.Fprintf(a.out, "Tempo: %s | Dificuldade: %s\n", r.PrepTime, r.Difficulty)
		for _, ing := range r.Ingredients {
			fmt.Fprintf(a.out, "- %s\n", ing)
		}
	}
	return nil
}

// CleanupMetrics deletes usage metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) error {
	n, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to clean up metrics: %w", err)
	}
	fmt.Fprintf(a.out, "Removed %d metric rows older than %d days.\n", n, days)
	return nil
}
