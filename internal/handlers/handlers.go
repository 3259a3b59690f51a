package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"organ/internal/composer"
	"organ/internal/db"
	applog "organ/internal/log"
	"organ/internal/lucky"
	"organ/internal/recipe"
	"organ/internal/units"
	"organ/internal/wheel"
	"organ/models"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 8 << 20
)

var errSessionUnavailable = errors.New("session store not configured")

var (
	sessionManager *scs.SessionManager
	store          *db.Store
	wheels         *wheel.Cache
	defaults       = composer.DefaultSettings()
)

// Configure installs the shared dependencies used by the HTTP handlers.
// settings carries the configured defaults that stored preferences override.
func Configure(sm *scs.SessionManager, st *db.Store, wc *wheel.Cache, settings composer.Settings) {
	sessionManager = sm
	store = st
	wheels = wc
	defaults = settings
}

// RequestContext tags the request context with a request id so every log
// line for the request can be correlated. An inbound X-Request-ID is kept.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := applog.WithAttrs(r.Context(), "request_id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentSettings overlays the stored preferences on the configured defaults.
func currentSettings(ctx context.Context) (composer.Settings, map[string]string, error) {
	settings := defaults
	stored, err := store.Settings(ctx)
	if err != nil {
		return composer.Settings{}, nil, err
	}
	if currency := strings.TrimSpace(stored[models.SettingCurrency]); currency != "" {
		settings.Currency = strings.ToUpper(currency)
	}
	if raw := strings.TrimSpace(stored[models.SettingDropsPerMl]); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil && ratio > 0 {
			settings.DropsPerVolumeUnit = ratio
		} else {
			applog.Debug(ctx, "ignoring stored drops per ml", "value", raw)
		}
	}
	return settings, stored, nil
}

// activeWheel resolves the wheel selected in settings through the cache.
func activeWheel(ctx context.Context, stored map[string]string) (*wheel.Graph, error) {
	id := strings.TrimSpace(stored[models.SettingWheel])
	if wheels == nil {
		if id == "" || id == "default" {
			return wheel.Default()
		}
		return store.GetWheel(ctx, id)
	}
	return wheels.Get(ctx, id)
}

// environment bundles what a scoring request needs.
func environment(ctx context.Context) (composer.Settings, *wheel.Graph, error) {
	settings, stored, err := currentSettings(ctx)
	if err != nil {
		return composer.Settings{}, nil, err
	}
	g, err := activeWheel(ctx, stored)
	if err != nil {
		return composer.Settings{}, nil, err
	}
	return settings, g, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNilDatabase), errors.Is(err, errSessionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, wheel.ErrUnknownWheel),
		errors.Is(err, composer.ErrMissingReference):
		return http.StatusNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	case errors.Is(err, units.ErrInvalidConfiguration), errors.Is(err, lucky.ErrNoCandidates):
		return http.StatusUnprocessableEntity
	case errors.Is(err, composer.ErrEmptyFormula),
		errors.Is(err, recipe.ErrInvalidTarget),
		errors.Is(err, recipe.ErrInvalidBundle),
		errors.Is(err, lucky.ErrNotEnoughIngredients),
		errors.Is(err, wheel.ErrInvalidWheel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure maps err to a status code and writes it. Server faults are
// logged at error level with action; everything else at debug.
func writeFailure(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		applog.Error(r.Context(), "failed to "+action, "error", err)
		writeJSONError(w, status, "unable to "+action)
		return
	}
	applog.Debug(r.Context(), action+" rejected", "status", status, "error", err)
	if status == http.StatusServiceUnavailable {
		writeJSONError(w, status, "service unavailable")
		return
	}
	writeJSONError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// pathSegments splits the request path below prefix.
func pathSegments(r *http.Request, prefix string) []string {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
