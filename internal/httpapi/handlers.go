package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/gorilla/mux"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/catalog"
	"filmdb.org/internal/obs"
	"filmdb.org/internal/stream"
)

const serviceName = "filmdb-api"

// Deps are the services the HTTP layer delegates to.
type Deps struct {
	Auth     *auth.Authenticator
	Admin    *auth.UserAdmin
	Catalog  *catalog.Service
	Sessions *auth.Sessions
	Tokens   *auth.TokenIssuer
	// Events feeds the live audit stream. Optional.
	Events *stream.Hub
}

// Limits tune the request guards.
type Limits struct {
	LoginPerSecond float64
	LoginBurst     int
	MaxBodyBytes   int64
	CORSOrigins    []string
	// TrustedProxies are CIDR ranges or addresses whose X-Forwarded-For
	// header names the real client.
	TrustedProxies []string
}

// API is the HTTP layer of the dashboard.
type API struct {
	router  *mux.Router
	auth    *auth.Authenticator
	admin   *auth.UserAdmin
	catalog *catalog.Service
	reg     *auth.Sessions
	tokens  *auth.TokenIssuer
	events  *stream.Hub
	limits  Limits
	proxies []netip.Prefix
	version string
}

// New wires the routes. Every dependency except Events is required.
func New(d Deps, limits Limits, version string) (*API, error) {
	switch {
	case d.Auth == nil:
		return nil, errors.New("httpapi: authenticator is required")
	case d.Admin == nil:
		return nil, errors.New("httpapi: user admin is required")
	case d.Catalog == nil:
		return nil, errors.New("httpapi: catalog is required")
	case d.Sessions == nil:
		return nil, errors.New("httpapi: session registry is required")
	case d.Tokens == nil:
		return nil, errors.New("httpapi: token issuer is required")
	}
	if limits.LoginPerSecond <= 0 {
		limits.LoginPerSecond = 1
	}
	if limits.LoginBurst <= 0 {
		limits.LoginBurst = 5
	}
	proxies, err := ParseTrustedProxies(limits.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %w", err)
	}
	a := &API{
		router:  mux.NewRouter(),
		auth:    d.Auth,
		admin:   d.Admin,
		catalog: d.Catalog,
		reg:     d.Sessions,
		tokens:  d.Tokens,
		events:  d.Events,
		limits:  limits,
		proxies: proxies,
		version: version,
	}
	a.routes()
	return a, nil
}

func (a *API) routes() {
	r := a.router
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.Ready).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/info", a.Info).Methods(http.MethodGet)
	v1.Handle("/auth/login", RateLimit(http.HandlerFunc(a.handleLogin), a.limits.LoginBurst, a.limits.LoginPerSecond, a.proxies...)).
		Methods(http.MethodPost)

	private := v1.NewRoute().Subrouter()
	private.Use(a.withSession)
	private.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)
	private.HandleFunc("/session", a.handleSession).Methods(http.MethodGet)
	private.HandleFunc("/pages/{page}", a.handlePage).Methods(http.MethodGet)

	private.HandleFunc("/users", a.handleListUsers).Methods(http.MethodGet)
	private.HandleFunc("/users", a.handleCreateUser).Methods(http.MethodPost)
	private.HandleFunc("/users/activity", a.handleUserActivity).Methods(http.MethodGet)
	private.HandleFunc("/users/{id:[0-9]+}/status", a.handleSetUserStatus).Methods(http.MethodPatch)
	private.HandleFunc("/users/{id:[0-9]+}", a.handleDeleteUser).Methods(http.MethodDelete)

	private.HandleFunc("/dashboard", a.handleDashboard).Methods(http.MethodGet)
	private.HandleFunc("/reports", a.handleListReports).Methods(http.MethodGet)
	private.HandleFunc("/reports/{view}", a.handleReport).Methods(http.MethodGet)
	private.HandleFunc("/procedures/{name}", a.handleProcedure).Methods(http.MethodGet)
	private.HandleFunc("/functions/{name}/{id:[0-9]+}", a.handleFunction).Methods(http.MethodGet)
	private.HandleFunc("/audit/stream", a.handleAuditStream).Methods(http.MethodGet)
	private.HandleFunc("/audit/{kind}", a.handleAuditTrail).Methods(http.MethodGet)
	private.HandleFunc("/films", a.handleAddFilm).Methods(http.MethodPost)
	private.HandleFunc("/films/{id:[0-9]+}", a.handleUpdateFilm).Methods(http.MethodPut)
	private.HandleFunc("/films/{id:[0-9]+}/status", a.handleFilmStatus).Methods(http.MethodPatch)
	private.HandleFunc("/films/{id:[0-9]+}/cast", a.handleCastActor).Methods(http.MethodPost)
	private.HandleFunc("/films/{id:[0-9]+}/crew", a.handleAllocateCrew).Methods(http.MethodPost)
	private.HandleFunc("/films/{id:[0-9]+}/locations", a.handleAddLocation).Methods(http.MethodPost)
	private.HandleFunc("/actors", a.handleAddActor).Methods(http.MethodPost)
	private.HandleFunc("/equipment", a.handleAddEquipment).Methods(http.MethodPost)
}

// Handler returns the router wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = MaxBodyBytes(h, a.limits.MaxBodyBytes)
	h = CORS(a.limits.CORSOrigins)(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h, a.proxies...)
	h = RequestID(h)
	return obs.Instrument(h)
}

// Check reports whether the credential store answers. It backs /readyz and
// the gRPC health service.
func (a *API) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.auth.Ping(ctx)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  auth.Message(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     serviceName,
		"time":     time.Now().UTC().Format(time.RFC3339),
		"version":  a.version,
		"sessions": a.reg.Len(),
	})
}
