package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/garage/internal/portal/http"
	"github.com/aussiebroadwan/garage/pkg/apiclient"
	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/aussiebroadwan/garage/pkg/metricsx"
	"github.com/aussiebroadwan/garage/pkg/routeguard"
	"github.com/aussiebroadwan/garage/pkg/slogx"
	"github.com/aussiebroadwan/garage/pkg/tokenstore"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// ChatNames are the cookies of the chatbot session. Only the tokens are
// kept; the display caches belong to the main session.
var ChatNames = tokenstore.Names{
	AccessToken:  "chatAuthToken",
	RefreshToken: "chatRefreshToken",
}

// Application encapsulates the portal with all its dependencies
type Application struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metricsx.Metrics

	verifier jwtx.Verifier
	guard    *routeguard.Guard
	api      *apiclient.Client
	chat     *apiclient.Client

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New(),
	}

	if err := app.initGuard(); err != nil {
		return nil, err
	}
	app.initClients()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired router.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("portal starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"api", app.cfg.APIBaseURL,
		"chatbot", app.cfg.ChatbotAPIBaseURL,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

// initGuard builds the verifier and the route guard from the table file
// or the built-in table.
func (app *Application) initGuard() error {
	verifier, err := jwtx.NewVerifierHS256([]byte(app.cfg.JWTSecret), jwtx.VerifyOptions{
		Issuer: app.cfg.Issuer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	app.verifier = verifier

	table := routeguard.DefaultTable()
	if app.cfg.RoutesFile != "" {
		table, err = routeguard.LoadTable(app.cfg.RoutesFile)
		if err != nil {
			return fmt.Errorf("failed to load route table: %w", err)
		}
		app.logger.Info("route table loaded", "file", app.cfg.RoutesFile, "rules", len(table.Rules))
	}

	app.guard = routeguard.New(table, verifier, app.metrics)
	if err := app.guard.Validate(); err != nil {
		return fmt.Errorf("invalid route guard: %w", err)
	}
	return nil
}

// initClients configures the API and chatbot clients.
func (app *Application) initClients() {
	app.api = app.newClient("api", app.cfg.APIBaseURL, tokenstore.DefaultNames)
	app.chat = app.newClient("chat", app.cfg.ChatbotAPIBaseURL, ChatNames)
}

func (app *Application) newClient(name, baseURL string, names tokenstore.Names) *apiclient.Client {
	c := apiclient.NewClient(name, baseURL)
	c.Names = names
	c.AccessTokenTTL = app.cfg.AccessTokenTTL
	c.RefreshTokenTTL = app.cfg.RefreshTokenTTL
	c.RefreshTimeout = app.cfg.RefreshTimeout
	c.Metrics = app.metrics
	c.OnSessionExpired = func(ctx context.Context, cause error) {
		slogx.FromContext(ctx).Info("session cleared", "client", name, "cause", cause)
	}
	return c
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.guard,
		app.api,
		app.chat,
		app.metrics,
		app.cfg.SecureCookies(),
		BuildVersion,
		app.logger,
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
