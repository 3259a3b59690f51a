package handlers

import (
	"fmt"
	"net/http"
	"time"

	applog "organ/internal/log"
	"organ/internal/recipe"
)

// Export downloads the full backup bundle.
func Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	bundle, err := store.Export(r.Context())
	if err != nil {
		writeFailure(w, r, "export data", err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", recipe.BackupFileName(bundle.ExportDate)))
	writeJSON(w, http.StatusOK, bundle)
}

// ExportIngredients downloads the catalog as CSV.
func ExportIngredients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	catalog, err := store.Catalog(r.Context())
	if err != nil {
		writeFailure(w, r, "export ingredients", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ingredients-"+time.Now().UTC().Format(time.DateOnly)+".csv"))
	w.WriteHeader(http.StatusOK)
	if err := recipe.WriteIngredientsCSV(w, catalog); err != nil {
		applog.Error(r.Context(), "failed to write ingredient csv", "error", err)
	}
}

// Import merges an uploaded backup bundle into the store.
func Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var bundle recipe.Bundle
	if err := decodeJSON(w, r, &bundle); err != nil {
		applog.Debug(r.Context(), "invalid backup payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid backup file")
		return
	}

	result, err := store.Import(r.Context(), bundle)
	if err != nil {
		writeFailure(w, r, "import data", err)
		return
	}
	if wheels != nil {
		for _, doc := range bundle.Wheels {
			wheels.Invalidate(doc.ID)
		}
	}
	applog.Info(r.Context(), "backup imported",
		"ingredients", result.Ingredients,
		"compositions", result.Compositions,
		"wheels", result.Wheels,
		"settings", result.Settings,
	)
	writeJSON(w, http.StatusOK, result)
}

// Stats reports catalog statistics.
func Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	stats, err := store.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, "load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ClearData deletes every ingredient and composition. The working formula
// of the calling session is reset too.
func ClearData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	if err := store.ClearAll(r.Context()); err != nil {
		writeFailure(w, r, "clear data", err)
		return
	}
	if sessionManager != nil {
		sessionManager.Remove(r.Context(), sessionFormulaKey)
	}
	applog.Info(r.Context(), "all ingredients and compositions cleared")
	w.WriteHeader(http.StatusNoContent)
}
