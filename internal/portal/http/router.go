package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/garage/pkg/apiclient"
	"github.com/aussiebroadwan/garage/pkg/httpx"
	"github.com/aussiebroadwan/garage/pkg/metricsx"
	"github.com/aussiebroadwan/garage/pkg/routeguard"
	"github.com/aussiebroadwan/garage/pkg/slogx"
	"github.com/aussiebroadwan/garage/pkg/tokenstore"

	_ "github.com/aussiebroadwan/garage/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate swag init -g router.go -d . -o ../../../api/portal --packageName portal --outputTypes go

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	guard        *routeguard.Guard
	api          *apiclient.Client
	chat         *apiclient.Client
	metrics      *metricsx.Metrics
	secure       bool
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

// NewRouter builds the portal router. Every request passes the request
// logger first, then the route guard.
func NewRouter(
	guard *routeguard.Guard,
	api, chat *apiclient.Client,
	m *metricsx.Metrics,
	secureCookies bool,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		guard:        guard,
		api:          api,
		chat:         chat,
		metrics:      m,
		secure:       secureCookies,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.guard.Middleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerDashboards()
	r.registerChat()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Garage Portal API
//	@version					0.1.0
//	@description				JSON endpoints of the garage portal. Pages are server-rendered HTML and not listed here.
//	@description
//	@description				Session state lives in cookies set at sign in; the chat relay uses the chat session cookies.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/garage
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:3000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	ChatSession
//	@in							cookie
//	@name						chatAuthToken
//	@description				Chat access token cookie set at sign in.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// apiSession binds the API client to the caller's cookies.
func (r *Router) apiSession(w http.ResponseWriter, req *http.Request) *apiclient.Session {
	return r.api.Session(tokenstore.NewCookieStore(w, req, tokenstore.CookieOptions{
		Secure: r.secure,
		Names:  r.api.Names,
	}))
}

// chatSession binds the chat client to the caller's cookies.
func (r *Router) chatSession(w http.ResponseWriter, req *http.Request) *apiclient.Session {
	return r.chat.Session(tokenstore.NewCookieStore(w, req, tokenstore.CookieOptions{
		Secure: r.secure,
		Names:  r.chat.Names,
	}))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Table:       r.guard.Table,
		Verifier:    r.guard.Verifier,
		APISession:  r.apiSession,
		ChatSession: r.chatSession,
	}

	r.Mux.HandleFunc("GET /{$}", h.HandleLoginPage)

	// Rate limited by IP + email to slow credential stuffing
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndFormField(httpx.LoginLimit, "email"),
		),
	)
	r.Mux.HandleFunc("POST /logout", h.HandleLogout)
	r.Mux.HandleFunc("GET /dashboard", h.HandleDashboardRedirect)
}

func (r *Router) registerDashboards() {
	h := &DashboardHandler{
		Home:       r.guard.Table.Home,
		APISession: r.apiSession,
	}

	for _, d := range dashboards {
		r.Mux.Handle("GET "+d.Path, h.Page(d))
		r.Mux.Handle("GET "+d.Path+"/dashboard", h.Page(d))
	}
}

func (r *Router) registerChat() {
	h := &ChatHandler{ChatSession: r.chatSession}
	r.Mux.HandleFunc("POST /chat/messages", h.HandleMessage)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.guard, r.api, r.chat))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}
