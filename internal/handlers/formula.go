package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"organ/internal/composer"
	"organ/internal/db"
	applog "organ/internal/log"
	"organ/internal/metrics"
	"organ/internal/units"
)

const (
	sessionFormulaKey = "composer:formula"
	formulaPath       = "/api/formula"
)

type formulaResponse struct {
	State    composer.State             `json:"state"`
	Formula  *composer.Formula          `json:"formula"`
	Score    composer.ScoredComposition `json:"score"`
	Currency string                     `json:"currency"`
	Skipped  []string                   `json:"skipped,omitempty"`
}

type formulaUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,max=120"`
	Mode *string `json:"mode" validate:"omitempty,oneof=drops drop volume ml"`
}

type entryAddRequest struct {
	IngredientID string  `json:"ingredientId" validate:"required"`
	Amount       float64 `json:"amount" validate:"gte=0"`
}

type entryPatchRequest struct {
	Steps  *int     `json:"steps"`
	Amount *float64 `json:"amount"`
}

type saveResponse struct {
	Kind        db.SaveKind          `json:"kind"`
	Composition composer.Composition `json:"composition"`
	formulaResponse
}

func loadFormula(ctx context.Context) (*composer.Formula, error) {
	if sessionManager == nil {
		return nil, errSessionUnavailable
	}
	data := sessionManager.GetBytes(ctx, sessionFormulaKey)
	if len(data) == 0 {
		return composer.NewFormula(), nil
	}
	var f composer.Formula
	if err := json.Unmarshal(data, &f); err != nil {
		applog.Warn(ctx, "discarding unreadable working formula", "error", err)
		return composer.NewFormula(), nil
	}
	return &f, nil
}

func storeFormula(ctx context.Context, f *composer.Formula) error {
	if sessionManager == nil {
		return errSessionUnavailable
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode working formula: %w", err)
	}
	sessionManager.Put(ctx, sessionFormulaKey, data)
	return nil
}

// scoreFormula runs the engine against the active wheel and settings.
func scoreFormula(ctx context.Context, f *composer.Formula) (composer.ScoredComposition, composer.Settings, error) {
	settings, g, err := environment(ctx)
	if err != nil {
		return composer.ScoredComposition{}, composer.Settings{}, err
	}
	scored, err := composer.Score(f, g, settings)
	if err != nil {
		return composer.ScoredComposition{}, composer.Settings{}, err
	}
	metrics.RecordScore(scored.Harmony.Score, scored.Harmony.TotalPairs)
	return scored, settings, nil
}

func formulaView(ctx context.Context, f *composer.Formula, skipped []string) (formulaResponse, error) {
	scored, settings, err := scoreFormula(ctx, f)
	if err != nil {
		return formulaResponse{}, err
	}
	return formulaResponse{
		State:    f.State(),
		Formula:  f,
		Score:    scored,
		Currency: settings.Currency,
		Skipped:  skipped,
	}, nil
}

func respondFormula(w http.ResponseWriter, r *http.Request, f *composer.Formula, skipped []string) {
	view, err := formulaView(r.Context(), f, skipped)
	if err != nil {
		writeFailure(w, r, "score formula", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// mutateFormula loads the working formula, applies fn and stores the result.
func mutateFormula(w http.ResponseWriter, r *http.Request, action string, fn func(*composer.Formula) error) {
	f, err := loadFormula(r.Context())
	if err != nil {
		writeFailure(w, r, action, err)
		return
	}
	if err := fn(f); err != nil {
		writeFailure(w, r, action, err)
		return
	}
	if err := storeFormula(r.Context(), f); err != nil {
		writeFailure(w, r, action, err)
		return
	}
	respondFormula(w, r, f, nil)
}

// Formula shows, renames or switches the unit mode of the working formula.
func Formula(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f, err := loadFormula(r.Context())
		if err != nil {
			writeFailure(w, r, "load formula", err)
			return
		}
		respondFormula(w, r, f, nil)
	case http.MethodPut:
		var req formulaUpdateRequest
		if !decodeAndValidate(w, r, &req, "formula update") {
			return
		}
		mutateFormula(w, r, "update formula", func(f *composer.Formula) error {
			if req.Name != nil {
				f.Rename(*req.Name)
			}
			if req.Mode != nil {
				mode, err := units.ParseUnit(*req.Mode)
				if err != nil {
					return err
				}
				f.SetMode(mode)
			}
			return nil
		})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

// FormulaEntries adds, adjusts and removes working formula entries.
func FormulaEntries(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r, formulaPath+"/entries")

	switch {
	case len(segments) == 0 && r.Method == http.MethodPost:
		addEntry(w, r)
	case len(segments) == 0:
		methodNotAllowed(w, http.MethodPost)
	case len(segments) > 1:
		http.NotFound(w, r)
	case r.Method == http.MethodPatch:
		patchEntry(w, r, segments[0])
	case r.Method == http.MethodDelete:
		removeEntry(w, r, segments[0])
	default:
		methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
	}
}

func addEntry(w http.ResponseWriter, r *http.Request) {
	var req entryAddRequest
	if !decodeAndValidate(w, r, &req, "formula entry") {
		return
	}
	row, err := store.GetIngredient(r.Context(), req.IngredientID)
	if err != nil {
		writeFailure(w, r, "add ingredient", err)
		return
	}
	mutateFormula(w, r, "add ingredient", func(f *composer.Formula) error {
		if req.Amount > 0 {
			f.AddAmount(row.Snapshot(), req.Amount)
		} else {
			f.Add(row.Snapshot())
		}
		return nil
	})
}

func patchEntry(w http.ResponseWriter, r *http.Request, id string) {
	var req entryPatchRequest
	if !decodeAndValidate(w, r, &req, "formula entry") {
		return
	}
	if (req.Steps == nil) == (req.Amount == nil) {
		writeJSONError(w, http.StatusBadRequest, "exactly one of steps or amount is required")
		return
	}
	mutateFormula(w, r, "adjust ingredient", func(f *composer.Formula) error {
		if req.Steps != nil {
			return f.Adjust(id, *req.Steps)
		}
		return f.SetAmount(id, *req.Amount)
	})
}

func removeEntry(w http.ResponseWriter, r *http.Request, id string) {
	mutateFormula(w, r, "remove ingredient", func(f *composer.Formula) error {
		if !f.Remove(id) {
			return composer.ErrMissingReference
		}
		return nil
	})
}

// ClearFormula resets the working formula to empty.
func ClearFormula(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	mutateFormula(w, r, "clear formula", func(f *composer.Formula) error {
		f.Clear()
		return nil
	})
}

// SaveFormula persists the working formula as a new composition or as the
// next version of the composition it was loaded from.
func SaveFormula(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	ctx := r.Context()
	f, err := loadFormula(ctx)
	if err != nil {
		writeFailure(w, r, "save composition", err)
		return
	}
	if f.Len() == 0 {
		writeFailure(w, r, "save composition", composer.ErrEmptyFormula)
		return
	}

	scored, settings, err := scoreFormula(ctx, f)
	if err != nil {
		writeFailure(w, r, "save composition", err)
		return
	}
	record, kind, err := store.SaveComposition(ctx, f, scored)
	if err != nil {
		writeFailure(w, r, "save composition", err)
		return
	}
	metrics.RecordSave(string(kind))

	f.MarkSaved(record.ID, record.Version)
	if err := storeFormula(ctx, f); err != nil {
		writeFailure(w, r, "save composition", err)
		return
	}
	view := formulaResponse{
		State:    f.State(),
		Formula:  f,
		Score:    scored,
		Currency: settings.Currency,
	}

	applog.Info(ctx, "composition saved", "id", record.ID, "version", record.Version, "kind", kind)
	status := http.StatusOK
	if kind == db.SaveNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, saveResponse{Kind: kind, Composition: record, formulaResponse: view})
}

// LoadFormula replaces the working formula with a saved composition.
// Lines whose ingredient has since been deleted are skipped and reported.
func LoadFormula(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	segments := pathSegments(r, formulaPath+"/load")
	if len(segments) != 1 {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	record, err := store.GetComposition(ctx, segments[0])
	if err != nil {
		writeFailure(w, r, "load composition", err)
		return
	}
	lookup, err := store.Lookup(ctx)
	if err != nil {
		writeFailure(w, r, "load composition", err)
		return
	}
	f, skipped := composer.Restore(record, lookup)
	if len(skipped) > 0 {
		applog.Warn(ctx, "composition references deleted ingredients", "id", record.ID, "skipped", len(skipped))
	}
	if err := storeFormula(ctx, f); err != nil {
		writeFailure(w, r, "load composition", err)
		return
	}
	respondFormula(w, r, f, skipped)
}

type scoreEntry struct {
	IngredientID string               `json:"ingredientId"`
	Ingredient   *composer.Ingredient `json:"ingredient"`
	Amount       float64              `json:"amount" validate:"gt=0"`
}

type scoreRequest struct {
	Name    string       `json:"name" validate:"max=120"`
	Mode    string       `json:"mode" validate:"omitempty,oneof=drops drop volume ml"`
	Entries []scoreEntry `json:"entries" validate:"dive"`
}

// Score is a stateless scoring endpoint. Entries reference catalog ids or
// carry their ingredient inline.
func Score(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req scoreRequest
	if !decodeAndValidate(w, r, &req, "score") {
		return
	}

	ctx := r.Context()
	f := composer.NewFormula()
	f.Rename(req.Name)
	if req.Mode != "" {
		mode, err := units.ParseUnit(req.Mode)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Mode = mode
	}

	var lookup composer.Lookup
	for i, entry := range req.Entries {
		if entry.Ingredient != nil {
			ing := *entry.Ingredient
			if ing.ID == "" {
				ing.ID = fmt.Sprintf("inline-%d", i)
			}
			f.AddAmount(ing, entry.Amount)
			continue
		}
		if lookup == nil {
			var err error
			if lookup, err = store.Lookup(ctx); err != nil {
				writeFailure(w, r, "score formula", err)
				return
			}
		}
		ing, ok := lookup(entry.IngredientID)
		if !ok {
			writeFailure(w, r, "score formula", fmt.Errorf("%w: %s", composer.ErrMissingReference, entry.IngredientID))
			return
		}
		f.AddAmount(ing, entry.Amount)
	}

	scored, _, err := scoreFormula(ctx, f)
	if err != nil {
		writeFailure(w, r, "score formula", err)
		return
	}
	writeJSON(w, http.StatusOK, scored)
}
