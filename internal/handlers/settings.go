package handlers

import (
	"net/http"
	"strconv"
	"strings"

	applog "organ/internal/log"
	"organ/internal/recipe"
	"organ/internal/units"
	"organ/internal/wheel"
	"organ/models"
)

type settingsResponse struct {
	Currency      string   `json:"currency"`
	Symbol        string   `json:"symbol"`
	DropsPerMl    float64  `json:"dropsPerMl"`
	Theme         string   `json:"theme"`
	Wheel         string   `json:"wheel"`
	Compatibility string   `json:"compatibility"`
	Currencies    []string `json:"currencies"`
}

type settingsRequest struct {
	Currency   *string  `json:"currency" validate:"omitempty,currency"`
	DropsPerMl *float64 `json:"dropsPerMl"`
	Theme      *string  `json:"theme" validate:"omitempty,oneof=light dark"`
	Wheel      *string  `json:"wheel" validate:"omitempty,max=64"`
}

// Settings reads and updates the stored preferences.
func Settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		showSettings(w, r)
	case http.MethodPut:
		updateSettings(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func showSettings(w http.ResponseWriter, r *http.Request) {
	settings, stored, err := currentSettings(r.Context())
	if err != nil {
		writeFailure(w, r, "load settings", err)
		return
	}
	wheelID := strings.TrimSpace(stored[models.SettingWheel])
	if wheelID == "" {
		wheelID = "default"
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Currency:      settings.Currency,
		Symbol:        recipe.Symbol(settings.Currency),
		DropsPerMl:    settings.DropsPerVolumeUnit,
		Theme:         models.NormalizeTheme(stored[models.SettingTheme]),
		Wheel:         wheelID,
		Compatibility: settings.Compatibility.String(),
		Currencies:    recipe.Currencies(),
	})
}

func updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeAndValidate(w, r, &req, "settings") {
		return
	}

	updates := make(map[string]string)
	if req.Currency != nil {
		updates[models.SettingCurrency] = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.DropsPerMl != nil {
		if _, err := units.NewConverter(*req.DropsPerMl); err != nil {
			writeFailure(w, r, "update settings", err)
			return
		}
		updates[models.SettingDropsPerMl] = strconv.FormatFloat(*req.DropsPerMl, 'f', -1, 64)
	}
	if req.Theme != nil {
		updates[models.SettingTheme] = models.NormalizeTheme(*req.Theme)
	}
	if req.Wheel != nil {
		id := strings.TrimSpace(*req.Wheel)
		if _, err := store.GetWheel(r.Context(), id); err != nil {
			writeFailure(w, r, "update settings", err)
			return
		}
		updates[models.SettingWheel] = id
	}

	if err := store.SaveSettings(r.Context(), updates); err != nil {
		writeFailure(w, r, "update settings", err)
		return
	}
	applog.Info(r.Context(), "settings updated", "keys", len(updates))
	showSettings(w, r)
}

// WheelResource serves the active compatibility wheel and accepts custom
// wheel documents in JSON or TOML.
func WheelResource(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		showWheel(w, r)
	case http.MethodPut:
		uploadWheel(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func showWheel(w http.ResponseWriter, r *http.Request) {
	var (
		g   *wheel.Graph
		err error
	)
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		if wheels != nil {
			g, err = wheels.Get(r.Context(), id)
		} else {
			g, err = store.GetWheel(r.Context(), id)
		}
	} else {
		_, g, err = environment(r.Context())
	}
	if err != nil {
		writeFailure(w, r, "load wheel", err)
		return
	}
	writeJSON(w, http.StatusOK, g.Document())
}

// ListWheels returns every stored wheel document.
func ListWheels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	docs, err := store.ListWheels(r.Context())
	if err != nil {
		writeFailure(w, r, "list wheels", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func uploadWheel(w http.ResponseWriter, r *http.Request) {
	format := wheel.FormatJSON
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "toml") {
		format = wheel.FormatTOML
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	g, err := wheel.Decode(r.Body, format)
	if err != nil {
		writeFailure(w, r, "decode wheel", err)
		return
	}
	if err := store.SaveWheel(r.Context(), g); err != nil {
		writeFailure(w, r, "save wheel", err)
		return
	}
	if wheels != nil {
		wheels.Put(g)
	}

	if activate, _ := strconv.ParseBool(r.URL.Query().Get("activate")); activate {
		if err := store.SaveSettings(r.Context(), map[string]string{models.SettingWheel: g.ID()}); err != nil {
			writeFailure(w, r, "activate wheel", err)
			return
		}
	}
	applog.Info(r.Context(), "wheel stored", "id", g.ID(), "families", len(g.Families()))
	writeJSON(w, http.StatusOK, g.Document())
}
