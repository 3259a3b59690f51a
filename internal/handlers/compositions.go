package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	applog "organ/internal/log"
	"organ/internal/recipe"
)

const compositionsPath = "/api/compositions"

// CompositionResource handles the saved composition library.
func CompositionResource(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r, compositionsPath)

	if len(segments) == 0 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		listCompositions(w, r)
		return
	}

	id := segments[0]
	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			showComposition(w, r, id)
		case http.MethodDelete:
			deleteComposition(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
		return
	}
	if len(segments) > 2 {
		http.NotFound(w, r)
		return
	}

	switch segments[1] {
	case "duplicate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		duplicateComposition(w, r, id)
	case "recipe":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		compositionRecipe(w, r, id)
	case "scale":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		scaleComposition(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func listCompositions(w http.ResponseWriter, r *http.Request) {
	compositions, err := store.ListCompositions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeFailure(w, r, "list compositions", err)
		return
	}
	writeJSON(w, http.StatusOK, compositions)
}

func showComposition(w http.ResponseWriter, r *http.Request, id string) {
	record, err := store.GetComposition(r.Context(), id)
	if err != nil {
		writeFailure(w, r, "load composition", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func deleteComposition(w http.ResponseWriter, r *http.Request, id string) {
	if err := store.DeleteComposition(r.Context(), id); err != nil {
		writeFailure(w, r, "delete composition", err)
		return
	}
	applog.Info(r.Context(), "composition deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func duplicateComposition(w http.ResponseWriter, r *http.Request, id string) {
	record, err := store.DuplicateComposition(r.Context(), id)
	if err != nil {
		writeFailure(w, r, "duplicate composition", err)
		return
	}
	applog.Info(r.Context(), "composition duplicated", "source", id, "id", record.ID, "name", record.Name)
	writeJSON(w, http.StatusCreated, record)
}

func compositionRecipe(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	record, err := store.GetComposition(ctx, id)
	if err != nil {
		writeFailure(w, r, "load composition", err)
		return
	}
	settings, _, err := currentSettings(ctx)
	if err != nil {
		writeFailure(w, r, "load settings", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", recipe.FileName(record.Name)))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(recipe.Text(record, settings.Currency))); err != nil {
		applog.Error(ctx, "failed to write recipe", "error", err, "id", id)
	}
}

func scaleComposition(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	raw := strings.TrimSpace(r.URL.Query().Get("target"))
	target, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		applog.Debug(ctx, "invalid scale target", "target", raw, "error", err)
		writeJSONError(w, http.StatusBadRequest, "target must be a volume in ml")
		return
	}

	record, err := store.GetComposition(ctx, id)
	if err != nil {
		writeFailure(w, r, "load composition", err)
		return
	}
	settings, _, err := currentSettings(ctx)
	if err != nil {
		writeFailure(w, r, "load settings", err)
		return
	}
	scaled, err := recipe.Scale(record, target, settings.Converter())
	if err != nil {
		writeFailure(w, r, "scale composition", err)
		return
	}
	writeJSON(w, http.StatusOK, scaled)
}
