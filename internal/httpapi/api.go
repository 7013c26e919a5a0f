// Package httpapi exposes the bounty service over HTTP: routing, middleware,
// authentication, rate admission and the uniform error envelope.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"bountyhub.org/internal/bounty"
	"bountyhub.org/internal/config"
	"bountyhub.org/internal/obs"
)

// ReadyProbe checks a dependency before reporting readiness. A nil DB (pure
// in-memory mode) is always ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the bounty service.
type API struct {
	svc        *bounty.Service
	router     chi.Router
	validate   *validator.Validate
	readyProbe ReadyProbe
	tokenTTL   time.Duration
	version    string
}

// New wires the router. Middleware order per protected route is fixed: rate
// admission, then the bearer authenticator, then the role gate, then the
// handler.
func New(svc *bounty.Service, cfg config.Config, rp ReadyProbe, version string) *API {
	a := &API{
		svc:        svc,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		readyProbe: rp,
		tokenTTL:   cfg.Auth.TokenTTL,
		version:    version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors)
	r.Use(maxBodyBytes(cfg.HTTP.MaxBodyBytes))
	r.Use(obs.Instrument)

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Method(http.MethodGet, "/metrics", obs.MetricsHandler())

	passthrough := func(next http.Handler) http.Handler { return next }
	general, authFailures, reportCreate, programCreate := passthrough, passthrough, passthrough, passthrough
	if !cfg.RateLimit.Disabled {
		general = limitByIP(generalLimit, generalWindow, "Too many requests, please try again later")
		reportCreate = limitByIP(reportCreateLimit, reportCreateWindow, "Too many reports submitted, please try again later")
		programCreate = limitByIP(programCreateLimit, programCreateWindow, "Too many programs created, please try again later")
		authFailures = newAuthFailureLimiter(authFailureLimit, authFailureWindow).Handler
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(general)

		r.Route("/auth", func(r chi.Router) {
			r.With(authFailures).Post("/register", a.handleRegister)
			r.With(authFailures).Post("/login", a.handleLogin)
			r.With(a.withAuth).Get("/me", a.handleMe)
		})

		r.Route("/programs", func(r chi.Router) {
			r.Get("/", a.handleListPrograms)
			r.Get("/{id}", a.handleGetProgram)
			r.With(programCreate, a.withAuth, requireRole(bounty.RoleCompany)).
				Post("/", a.handleCreateProgram)
			r.With(a.withAuth, requireRole(bounty.RoleCompany)).
				Put("/{id}", a.handleUpdateProgram)
			r.With(a.withAuth, requireRole(bounty.RoleCompany)).
				Delete("/{id}", a.handleDeleteProgram)
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(reportCreate, a.withAuth, requireRole(bounty.RoleResearcher)).
				Post("/", a.handleCreateReport)
			r.With(a.withAuth).Get("/program/{programID}", a.handleListProgramReports)
			r.With(a.withAuth).Get("/{id}", a.handleGetReport)
			r.With(a.withAuth, requireRole(bounty.RoleCompany)).
				Patch("/{id}/status", a.handleUpdateReportStatus)
		})
	})

	a.router = r
	return a
}

// Handler returns the fully wired HTTP handler.
func (a *API) Handler() http.Handler {
	return a.router
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "bountyhub-api",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// validateRequest runs struct validation and renders a field-level message on
// failure, before any persistence access.
func (a *API) validateRequest(v any) (string, bool) {
	err := a.validate.Struct(v)
	if err == nil {
		return "", true
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) || len(invalid) == 0 {
		return "invalid request", false
	}
	fields := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Sprintf("invalid or missing fields: %s", strings.Join(fields, ", ")), false
}
