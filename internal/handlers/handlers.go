// Package handlers provides HTTP request handlers for the dispatch service.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
	"github.com/telhawk-systems/telhawk-iris/internal/iris"
	"github.com/telhawk-systems/telhawk-iris/internal/notify"
)

const serviceName = "iris-dispatch"

// Handler provides HTTP handlers for the dispatch service
type Handler struct {
	registry *notify.Registry
	log      *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(registry *notify.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{registry: registry, log: log}
}

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

// ReadyCheck handles GET /readyz
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": serviceName,
	})
}

// Alerters handles GET /api/v1/alerters — the diagnostics descriptor list of
// every registered rule alerter.
func (h *Handler) Alerters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"alerters": h.registry.Descriptors(),
	})
}

// dispatchRequest is the manual dispatch body: the ordered match records to
// submit through a rule's alerter.
type dispatchRequest struct {
	Matches []events.Match `json:"matches"`
}

// Dispatch handles POST /api/v1/dispatch/{rule} — a manual invocation of one
// rule's alerter, mainly for testing a rule definition end to end.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ruleName, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/api/v1/dispatch/"))
	if err != nil || ruleName == "" {
		writeError(w, http.StatusBadRequest, "missing rule name")
		return
	}

	notifier, ok := h.registry.Get(ruleName)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown rule: "+ruleName)
		return
	}

	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := notifier.Send(r.Context(), req.Matches); err != nil {
		h.log.Error("manual dispatch failed", slog.String("rule", ruleName), slog.Any("error", err))

		var se *iris.SubmissionError
		if errors.As(err, &se) {
			writeError(w, http.StatusBadGateway, se.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "dispatched",
		"rule":    ruleName,
		"matches": len(req.Matches),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
