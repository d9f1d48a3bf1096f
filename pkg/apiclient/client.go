package apiclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/aussiebroadwan/garage/pkg/metricsx"
	"github.com/aussiebroadwan/garage/pkg/tokenstore"
)

const (
	DefaultLoginPath      = "/api/auth/login"
	DefaultRefreshPath    = "/api/auth/refresh-token"
	DefaultRefreshTimeout = 15 * time.Second
)

// Client is a configured API endpoint. Set fields before the first Session
// is created; they are read without locking afterwards.
type Client struct {
	// Name labels logs and metrics ("api", "chat").
	Name       string
	BaseURL    string
	HTTPClient *http.Client

	// Names are the store keys this client reads and writes.
	Names tokenstore.Names

	// AccessTokenTTL is the validity written for a refreshed or issued
	// access token. It matches what the API issues at login.
	AccessTokenTTL time.Duration
	// RefreshTokenTTL applies to the refresh token and the display caches.
	RefreshTokenTTL time.Duration
	// RefreshTimeout bounds one refresh exchange; hitting it fails the session.
	RefreshTimeout time.Duration

	LoginPath   string
	RefreshPath string

	// OnSessionExpired runs once per failed refresh, after the store was
	// cleared. In-process callers use it to send the user back to sign in.
	OnSessionExpired func(ctx context.Context, cause error)

	Metrics *metricsx.Metrics

	flightsOnce sync.Once
	flights     *coordinator
}

// NewClient creates a client with the portal defaults.
func NewClient(name, baseURL string) *Client {
	return &Client{
		Name:    name,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Names:           tokenstore.DefaultNames,
		AccessTokenTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTokenTTL: jwtx.DefaultRefreshTokenTTL,
		RefreshTimeout:  DefaultRefreshTimeout,
		LoginPath:       DefaultLoginPath,
		RefreshPath:     DefaultRefreshPath,
		flights:         newCoordinator(),
	}
}

// Session binds the client to store. Every session of one client shares
// its refresh coordinator.
func (c *Client) Session(store tokenstore.Store) *Session {
	c.coordinator()
	return &Session{client: c, store: store}
}

// coordinator returns the shared coordinator, creating it once for a
// Client built without NewClient.
func (c *Client) coordinator() *coordinator {
	c.flightsOnce.Do(func() {
		if c.flights == nil {
			c.flights = newCoordinator()
		}
	})
	return c.flights
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}
