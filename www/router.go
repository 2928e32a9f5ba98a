// Package www is the HTTP surface of the core: the JSON API behind the
// supervisor dashboard and the operator terminals.
package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"

	"pofcore/command"
	"pofcore/config"
	"pofcore/messaging"
	"pofcore/progress"
	"pofcore/report"
	"pofcore/store"
)

type Handlers struct {
	db       *store.DB
	cmd      *command.Commander
	progress *progress.Manager
	report   *report.Generator
	msg      messaging.Client
	sessions *sessions.CookieStore
	cfg      *config.Config
}

func NewHandlers(cfg *config.Config, db *store.DB, cmd *command.Commander, prog *progress.Manager, gen *report.Generator, msg messaging.Client) *Handlers {
	sessionStore := sessions.NewCookieStore([]byte(cfg.Web.SessionSecret))
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.MaxAge = int((8 * time.Hour).Seconds())
	// The library's defaults assume TLS; pofcore usually serves plain HTTP
	// on the plant network, where a Secure cookie would never come back.
	sessionStore.Options.Secure = cfg.Web.SecureCookies
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	return &Handlers{
		db:       db,
		cmd:      cmd,
		progress: prog,
		report:   gen,
		msg:      msg,
		sessions: sessionStore,
		cfg:      cfg,
	}
}

func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.apiLogin)
		r.Post("/logout", h.apiLogout)
		r.Get("/health", h.apiHealth)

		// Read surface: dashboards and terminals poll these.
		r.Get("/orders", h.apiListOrders)
		r.Get("/orders/urgent", h.apiUrgentOrders)
		r.Get("/orders/{id}", h.apiGetOrder)
		r.Get("/orders/{id}/plan", h.apiOrderPlan)
		r.Get("/orders/{id}/progress", h.apiOrderProgress)
		r.Get("/plan/{rowID}/status", h.apiRowStatus)
		r.Get("/plan/{rowID}/events", h.apiRowEvents)
		r.Get("/machines", h.apiListMachines)
		r.Get("/machines/{id}", h.apiGetMachine)
		r.Get("/machines/{id}/worklist", h.apiWorklist)
		r.Get("/machines/{id}/current", h.apiCurrentJob)
		r.Get("/machines/{id}/log", h.apiMachineLog)
		r.Get("/stations", h.apiStations)
		r.Get("/stations/{id}/orders", h.apiStationOrders)
		r.Get("/kpis", h.apiKPIs)
		r.Get("/exceptions", h.apiExceptions)
		r.Get("/audit", h.apiAudit)
		r.Get("/reports/production.xlsx", h.apiProductionReport)

		// Operator terminal: identified by operator field, not a session.
		r.Post("/orders", h.apiCreateOrder)
		r.Post("/plan/{rowID}/start", h.apiStartStep)
		r.Post("/plan/{rowID}/pause", h.apiPauseStep)
		r.Post("/plan/{rowID}/complete", h.apiCompleteStep)

		// Supervisor mutations require a session.
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/orders/release", h.apiReleaseOrders)
			r.Post("/orders/{id}/release", h.apiReleaseOrder)
			r.Post("/orders/{id}/activate", h.apiActivateOrder)
			r.Post("/orders/{id}/schedule", h.apiScheduleOrder)
			r.Patch("/orders/{id}/priority", h.apiAmendPriority)
			r.Post("/orders/{id}/steps", h.apiAddStep)
			r.Patch("/plan/{rowID}", h.apiUpdateStep)
			r.Delete("/plan/{rowID}", h.apiRemoveStep)
			r.Post("/machines/{id}/status", h.apiSetMachineStatus)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins(h.cfg.Web.CORSOrigin),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func corsOrigins(origin string) []string {
	if origin == "" {
		return []string{"*"}
	}
	return []string{origin}
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// jsonCreated is jsonOK with a 201; the Content-Type must land before the
// status line is written.
func (h *Handlers) jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// fail maps domain errors onto HTTP status codes.
func (h *Handlers) fail(w http.ResponseWriter, err error) {
	var verr *command.ValidationError
	switch {
	case errors.As(err, &verr):
		h.jsonError(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrBadStatus):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		h.jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrTerminalState),
		errors.Is(err, store.ErrLastPlanRow),
		errors.Is(err, store.ErrDuplicateOrderNumber):
		h.jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
