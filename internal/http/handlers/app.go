package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/batch"
	"server/internal/domain"
	"server/internal/generation"

	"github.com/rs/zerolog"
)

// App bundles the services the HTTP handlers operate on.
type App struct {
	Generation *generation.Service
	Batches    *batch.Coordinator
	Logger     zerolog.Logger
}

func NewApp(svc *generation.Service, batches *batch.Coordinator, logger zerolog.Logger) *App {
	return &App{Generation: svc, Batches: batches, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error"`
	Usage   *domain.UsageSnapshot `json:"usage,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, errorBody{Success: false, Error: message})
}

// errorWithUsage is the quota-exceeded shape: the error plus the
// current counters so a client can render "X/Y used" without a second
// call.
func (a *App) errorWithUsage(w http.ResponseWriter, code int, message string, usage domain.UsageSnapshot) {
	a.json(w, code, errorBody{Success: false, Error: message, Usage: &usage})
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusNotFound, messageFor(localeOf(r), msgNotFound))
}
