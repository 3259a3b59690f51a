package handlers

import (
	"net/http"
	"strings"

	"organ/internal/composer"
	applog "organ/internal/log"
	"organ/models"
)

const ingredientsPath = "/api/ingredients"

type ingredientRequest struct {
	Name       string  `json:"name" validate:"required,max=120"`
	Family     string  `json:"family" validate:"required,max=64"`
	NoteType   string  `json:"note_type" validate:"omitempty,notetype"`
	PricePerMl float64 `json:"price_per_ml" validate:"gte=0"`
	Intensity  int     `json:"intensity" validate:"gte=0,lte=10"`
	Notes      string  `json:"notes" validate:"max=2000"`
}

func (req ingredientRequest) apply(ingredient *models.Ingredient) {
	ingredient.Name = strings.TrimSpace(req.Name)
	ingredient.Family = strings.ToLower(strings.TrimSpace(req.Family))
	ingredient.NoteType = ""
	if tier, ok := composer.ParseNoteType(req.NoteType); ok {
		ingredient.NoteType = string(tier)
	}
	ingredient.PricePerMl = req.PricePerMl
	ingredient.Intensity = req.Intensity
	ingredient.Notes = strings.TrimSpace(req.Notes)
}

// IngredientResource handles REST-style interactions for catalog entries.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r, ingredientsPath)

	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}
	if len(segments) > 1 {
		http.NotFound(w, r)
		return
	}

	id := segments[0]
	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, id)
	case http.MethodPut:
		updateIngredient(w, r, id)
	case http.MethodDelete:
		deleteIngredient(w, r, id)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := store.ListIngredients(r.Context())
	if err != nil {
		writeFailure(w, r, "list ingredients", err)
		return
	}
	if family := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("family"))); family != "" {
		filtered := ingredients[:0]
		for _, ing := range ingredients {
			if ing.Family == family {
				filtered = append(filtered, ing)
			}
		}
		ingredients = filtered
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func showIngredient(w http.ResponseWriter, r *http.Request, id string) {
	ingredient, err := store.GetIngredient(r.Context(), id)
	if err != nil {
		writeFailure(w, r, "load ingredient", err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !decodeAndValidate(w, r, &req, "ingredient") {
		return
	}

	var ingredient models.Ingredient
	req.apply(&ingredient)
	if err := store.CreateIngredient(r.Context(), &ingredient); err != nil {
		writeFailure(w, r, "create ingredient", err)
		return
	}
	applog.Info(r.Context(), "ingredient created", "id", ingredient.ID, "name", ingredient.Name)
	writeJSON(w, http.StatusCreated, ingredient)
}

func updateIngredient(w http.ResponseWriter, r *http.Request, id string) {
	var req ingredientRequest
	if !decodeAndValidate(w, r, &req, "ingredient") {
		return
	}

	ingredient := models.Ingredient{ID: id}
	req.apply(&ingredient)
	if err := store.UpdateIngredient(r.Context(), &ingredient); err != nil {
		writeFailure(w, r, "update ingredient", err)
		return
	}
	applog.Info(r.Context(), "ingredient updated", "id", ingredient.ID)
	writeJSON(w, http.StatusOK, ingredient)
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, id string) {
	if err := store.DeleteIngredient(r.Context(), id); err != nil {
		writeFailure(w, r, "delete ingredient", err)
		return
	}
	applog.Info(r.Context(), "ingredient deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
