package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"organ/internal/composer"
	"organ/internal/db"
	"organ/internal/recipe"
	"organ/internal/wheel"
	"organ/models"
)

type testAPI struct {
	t      *testing.T
	base   string
	client *http.Client
	store  *db.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), db.Options(logger.Silent))
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	st := db.NewStore(database)
	sm := scs.New()
	cache := wheel.NewCache(4, time.Minute, st.GetWheel)

	originalSessions, originalStore, originalWheels, originalDefaults := sessionManager, store, wheels, defaults
	Configure(sm, st, cache, composer.DefaultSettings())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", Health)
	mux.HandleFunc("/api/ingredients", IngredientResource)
	mux.HandleFunc("/api/ingredients/", IngredientResource)
	mux.HandleFunc("/api/settings", Settings)
	mux.HandleFunc("/api/wheel", WheelResource)
	mux.HandleFunc("/api/wheels", ListWheels)
	mux.HandleFunc("/api/formula", Formula)
	mux.HandleFunc("/api/formula/entries", FormulaEntries)
	mux.HandleFunc("/api/formula/entries/", FormulaEntries)
	mux.HandleFunc("/api/formula/clear", ClearFormula)
	mux.HandleFunc("/api/formula/save", SaveFormula)
	mux.HandleFunc("/api/formula/load/", LoadFormula)
	mux.HandleFunc("/api/score", Score)
	mux.HandleFunc("/api/compositions", CompositionResource)
	mux.HandleFunc("/api/compositions/", CompositionResource)
	mux.HandleFunc("/api/lucky", Lucky)
	mux.HandleFunc("/api/export", Export)
	mux.HandleFunc("/api/export/ingredients.csv", ExportIngredients)
	mux.HandleFunc("/api/import", Import)
	mux.HandleFunc("/api/stats", Stats)
	mux.HandleFunc("/api/data", ClearData)

	srv := httptest.NewServer(sm.LoadAndSave(RequestContext(mux)))
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	t.Cleanup(func() {
		srv.Close()
		sessionManager, store, wheels, defaults = originalSessions, originalStore, originalWheels, originalDefaults
		_ = sqlDB.Close()
	})

	return &testAPI{t: t, base: srv.URL, client: &http.Client{Jar: jar}, store: st}
}

// do sends a request and decodes a JSON response into out when non-nil.
func (a *testAPI) do(method, path string, body any, out any) int {
	a.t.Helper()

	var reader io.Reader
	contentType := "application/json"
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
		contentType = "application/toml"
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.base+path, reader)
	if err != nil {
		a.t.Fatalf("build request: %v", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		a.t.Fatalf("read body: %v", err)
	}
	if out != nil && len(data) > 0 {
		if s, ok := out.(*string); ok {
			*s = string(data)
		} else if err := json.Unmarshal(data, out); err != nil {
			a.t.Fatalf("decode %s %s response %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

func (a *testAPI) seed(rows ...models.Ingredient) []models.Ingredient {
	a.t.Helper()
	out := make([]models.Ingredient, 0, len(rows))
	for _, row := range rows {
		ingredient := row
		if err := a.store.CreateIngredient(a.t.Context(), &ingredient); err != nil {
			a.t.Fatalf("seed ingredient: %v", err)
		}
		out = append(out, ingredient)
	}
	return out
}

var (
	bergamot = models.Ingredient{Name: "Bergamot", Family: "citrus", NoteType: "top", PricePerMl: 10}
	rose     = models.Ingredient{Name: "Rose", Family: "floral", NoteType: "middle", PricePerMl: 8}
	cedar    = models.Ingredient{Name: "Cedarwood", Family: "woody", NoteType: "base", PricePerMl: 2}
)

type formulaBody struct {
	State   composer.State             `json:"state"`
	Formula composer.Formula           `json:"formula"`
	Score   composer.ScoredComposition `json:"score"`
	Skipped []string                   `json:"skipped"`
}

type saveBody struct {
	Kind        db.SaveKind          `json:"kind"`
	Composition composer.Composition `json:"composition"`
	State       composer.State       `json:"state"`
}

func TestIngredientResourceLifecycle(t *testing.T) {
	api := newTestAPI(t)

	var invalid ValidationErrorResponse
	if status := api.do(http.MethodPost, "/api/ingredients", map[string]any{"family": "citrus", "note_type": "crown"}, &invalid); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid ingredient, got %d", status)
	}
	if invalid.Fields["name"] == "" || invalid.Fields["note_type"] == "" {
		t.Fatalf("expected name and note_type field errors, got %v", invalid.Fields)
	}

	var created models.Ingredient
	payload := map[string]any{"name": " Bergamot ", "family": "Citrus", "note_type": "head", "price_per_ml": 0.45, "intensity": 3}
	if status := api.do(http.MethodPost, "/api/ingredients", payload, &created); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if created.ID == "" || created.Name != "Bergamot" || created.Family != "citrus" || created.NoteType != "top" {
		t.Fatalf("unexpected created ingredient: %+v", created)
	}

	if status := api.do(http.MethodPost, "/api/ingredients", payload, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", status)
	}

	payload["price_per_ml"] = 0.5
	var updated models.Ingredient
	if status := api.do(http.MethodPut, "/api/ingredients/"+created.ID, payload, &updated); status != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", status)
	}
	if updated.PricePerMl != 0.5 {
		t.Fatalf("expected updated price, got %v", updated.PricePerMl)
	}

	var list []models.Ingredient
	if status := api.do(http.MethodGet, "/api/ingredients?family=citrus", nil, &list); status != http.StatusOK || len(list) != 1 {
		t.Fatalf("expected one citrus ingredient, got %d %+v", status, list)
	}

	if status := api.do(http.MethodDelete, "/api/ingredients/"+created.ID, nil, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}
	if status := api.do(http.MethodDelete, "/api/ingredients/"+created.ID, nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", status)
	}
	if status := api.do(http.MethodPatch, "/api/ingredients", nil, nil); status != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", status)
	}
}

func TestWorkingFormulaLifecycle(t *testing.T) {
	api := newTestAPI(t)
	rows := api.seed(bergamot, cedar)

	var body formulaBody
	if status := api.do(http.MethodGet, "/api/formula", nil, &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body.State != composer.StateEmpty || body.Score.Balance.Percent(composer.NoteTop) != 0 {
		t.Fatalf("expected empty formula, got %+v", body)
	}

	if status := api.do(http.MethodPost, "/api/formula/save", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 saving an empty formula, got %d", status)
	}

	api.do(http.MethodPost, "/api/formula/entries", map[string]any{"ingredientId": rows[0].ID}, nil)
	api.do(http.MethodPost, "/api/formula/entries", map[string]any{"ingredientId": rows[0].ID}, &body)
	if body.Formula.Len() != 1 || body.Formula.Entries[0].Amount != 2 {
		t.Fatalf("expected duplicate add to increment, got %+v", body.Formula.Entries)
	}

	if status := api.do(http.MethodPost, "/api/formula/entries", map[string]any{"ingredientId": rows[1].ID, "amount": 5}, &body); status != http.StatusOK {
		t.Fatalf("expected 200 adding with amount, got %d", status)
	}
	if status := api.do(http.MethodPatch, "/api/formula/entries/"+rows[1].ID, map[string]any{"steps": -10}, &body); status != http.StatusOK {
		t.Fatalf("expected 200 on adjust, got %d", status)
	}
	if entry, _ := body.Formula.Entry(rows[1].ID); entry.Amount != 1 {
		t.Fatalf("expected amount clamped to one drop, got %v", entry.Amount)
	}
	if status := api.do(http.MethodPatch, "/api/formula/entries/missing", map[string]any{"steps": 1}, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 adjusting unknown entry, got %d", status)
	}
	if status := api.do(http.MethodPatch, "/api/formula/entries/"+rows[1].ID, map[string]any{}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without steps or amount, got %d", status)
	}
	if status := api.do(http.MethodPost, "/api/formula/entries", map[string]any{"ingredientId": "missing"}, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 adding unknown ingredient, got %d", status)
	}

	api.do(http.MethodPut, "/api/formula", map[string]any{"name": "Citrus Woods"}, &body)
	if body.Formula.Name != "Citrus Woods" || body.State != composer.StateEditing {
		t.Fatalf("unexpected formula after rename: %+v", body)
	}
	if body.Score.Totals.Drops != 3 || body.Score.Harmony.TotalPairs != 1 {
		t.Fatalf("unexpected score: %+v", body.Score)
	}

	var saved saveBody
	if status := api.do(http.MethodPost, "/api/formula/save", nil, &saved); status != http.StatusCreated {
		t.Fatalf("expected 201 on first save, got %d", status)
	}
	if saved.Kind != db.SaveNew || saved.Composition.Version != 1 || saved.State != composer.StateSaved {
		t.Fatalf("unexpected first save: %+v", saved)
	}

	api.do(http.MethodPatch, "/api/formula/entries/"+rows[0].ID, map[string]any{"amount": 4}, &body)
	if body.State != composer.StateEditing {
		t.Fatalf("expected editing after change, got %s", body.State)
	}
	if status := api.do(http.MethodPost, "/api/formula/save", nil, &saved); status != http.StatusOK {
		t.Fatalf("expected 200 on update save, got %d", status)
	}
	if saved.Kind != db.SaveUpdate || saved.Composition.Version != 2 {
		t.Fatalf("unexpected update save: %+v", saved)
	}
	compositionID := saved.Composition.ID

	api.do(http.MethodPost, "/api/formula/clear", nil, &body)
	if body.State != composer.StateEmpty || body.Formula.Identity() != "" {
		t.Fatalf("expected cleared formula, got %+v", body)
	}

	if err := api.store.DeleteIngredient(t.Context(), rows[1].ID); err != nil {
		t.Fatalf("delete ingredient: %v", err)
	}
	if status := api.do(http.MethodPost, "/api/formula/load/"+compositionID, nil, &body); status != http.StatusOK {
		t.Fatalf("expected 200 on load, got %d", status)
	}
	if body.Formula.Len() != 1 || len(body.Skipped) != 1 || body.Skipped[0] != rows[1].ID {
		t.Fatalf("expected one restored and one skipped entry, got %+v", body)
	}
	if body.State != composer.StateSaved || body.Formula.Identity() != compositionID {
		t.Fatalf("expected loaded formula to keep identity, got %+v", body)
	}
	if status := api.do(http.MethodPost, "/api/formula/load/missing", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 loading unknown composition, got %d", status)
	}
}

func TestFormulaModeSwitch(t *testing.T) {
	api := newTestAPI(t)
	rows := api.seed(rose)

	var body formulaBody
	api.do(http.MethodPost, "/api/formula/entries", map[string]any{"ingredientId": rows[0].ID, "amount": 20}, nil)
	if status := api.do(http.MethodPut, "/api/formula", map[string]any{"mode": "ml"}, &body); status != http.StatusOK {
		t.Fatalf("expected 200 switching mode, got %d", status)
	}
	if body.Formula.Mode != "volume" || body.Score.Totals.Volume != 20 {
		t.Fatalf("expected reinterpreted volume amounts, got %+v", body.Score.Totals)
	}
	if status := api.do(http.MethodPut, "/api/formula", map[string]any{"mode": "grams"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", status)
	}
}

func TestScoreIsStateless(t *testing.T) {
	api := newTestAPI(t)
	rows := api.seed(bergamot)

	request := map[string]any{
		"name": "Bench Test",
		"entries": []map[string]any{
			{"ingredientId": rows[0].ID, "amount": 10},
			{"ingredient": map[string]any{"name": "Amber Base", "family": "oriental", "noteType": "base", "unitPrice": 4}, "amount": 10},
		},
	}
	var scored composer.ScoredComposition
	if status := api.do(http.MethodPost, "/api/score", request, &scored); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if scored.Totals.Drops != 20 || len(scored.Entries) != 2 {
		t.Fatalf("unexpected totals: %+v", scored.Totals)
	}
	if scored.Balance.TopPercent != 50 || scored.Balance.BasePercent != 50 {
		t.Fatalf("unexpected balance: %+v", scored.Balance)
	}

	var body formulaBody
	api.do(http.MethodGet, "/api/formula", nil, &body)
	if body.State != composer.StateEmpty {
		t.Fatalf("scoring must not touch the working formula, got %s", body.State)
	}

	bad := map[string]any{"entries": []map[string]any{{"ingredientId": "missing", "amount": 1}}}
	if status := api.do(http.MethodPost, "/api/score", bad, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown ingredient, got %d", status)
	}
	zero := map[string]any{"entries": []map[string]any{{"ingredientId": rows[0].ID, "amount": 0}}}
	if status := api.do(http.MethodPost, "/api/score", zero, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a zero amount, got %d", status)
	}
}

func saveComposition(t *testing.T, api *testAPI, name string, rows ...models.Ingredient) composer.Composition {
	t.Helper()
	api.do(http.MethodPost, "/api/formula/clear", nil, nil)
	for _, row := range rows {
		api.do(http.MethodPost, "/api/formula/entries", map[string]any{"ingredientId": row.ID, "amount": 10}, nil)
	}
	api.do(http.MethodPut, "/api/formula", map[string]any{"name": name}, nil)
	var saved saveBody
	if status := api.do(http.MethodPost, "/api/formula/save", nil, &saved); status != http.StatusCreated {
		t.Fatalf("expected 201 saving %s, got %d", name, status)
	}
	return saved.Composition
}

func TestCompositionRoutes(t *testing.T) {
	api := newTestAPI(t)
	rows := api.seed(bergamot, rose, cedar)
	first := saveComposition(t, api, "Summer Garden", rows...)
	saveComposition(t, api, "Winter Woods", rows[2])

	var list []composer.Composition
	api.do(http.MethodGet, "/api/compositions", nil, &list)
	if len(list) != 2 || list[0].Name != "Winter Woods" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	api.do(http.MethodGet, "/api/compositions?q=garden", nil, &list)
	if len(list) != 1 || list[0].ID != first.ID {
		t.Fatalf("unexpected search result: %+v", list)
	}

	var text string
	if status := api.do(http.MethodGet, "/api/compositions/"+first.ID+"/recipe", nil, &text); status != http.StatusOK {
		t.Fatalf("expected 200 for recipe, got %d", status)
	}
	for _, want := range []string{"Summer Garden", "TOP NOTES", "Bergamot", "Cedarwood"} {
		if !strings.Contains(text, want) {
			t.Fatalf("recipe missing %q:\n%s", want, text)
		}
	}

	var scaled recipe.Scaled
	if status := api.do(http.MethodGet, "/api/compositions/"+first.ID+"/scale?target=15", nil, &scaled); status != http.StatusOK {
		t.Fatalf("expected 200 for scale, got %d", status)
	}
	if scaled.TargetVolume != 15 || len(scaled.Ingredients) != 3 {
		t.Fatalf("unexpected scaled recipe: %+v", scaled)
	}
	if status := api.do(http.MethodGet, "/api/compositions/"+first.ID+"/scale?target=-1", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative target, got %d", status)
	}
	if status := api.do(http.MethodGet, "/api/compositions/"+first.ID+"/scale?target=lots", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparsable target, got %d", status)
	}

	var dup composer.Composition
	if status := api.do(http.MethodPost, "/api/compositions/"+first.ID+"/duplicate", nil, &dup); status != http.StatusCreated {
		t.Fatalf("expected 201 for duplicate, got %d", status)
	}
	if dup.Name != "Summer Garden (Copy)" || dup.ID == first.ID || dup.Version != 1 {
		t.Fatalf("unexpected duplicate: %+v", dup)
	}

	if status := api.do(http.MethodDelete, "/api/compositions/"+dup.ID, nil, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204 deleting duplicate, got %d", status)
	}
	if status := api.do(http.MethodGet, "/api/compositions/"+dup.ID, nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
	if status := api.do(http.MethodGet, "/api/compositions/"+first.ID+"/unknown", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sub-resource, got %d", status)
	}
}

func TestSettingsValidation(t *testing.T) {
	api := newTestAPI(t)

	var settings settingsResponse
	api.do(http.MethodGet, "/api/settings", nil, &settings)
	if settings.Currency != "USD" || settings.DropsPerMl != 20 || settings.Theme != models.ThemeLight || settings.Wheel != "default" {
		t.Fatalf("unexpected default settings: %+v", settings)
	}

	if status := api.do(http.MethodPut, "/api/settings", map[string]any{"dropsPerMl": 0}, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a zero ratio, got %d", status)
	}
	var invalid ValidationErrorResponse
	if status := api.do(http.MethodPut, "/api/settings", map[string]any{"currency": "XYZ"}, &invalid); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown currency, got %d", status)
	}
	if invalid.Fields["currency"] == "" {
		t.Fatalf("expected currency field error, got %v", invalid.Fields)
	}
	if status := api.do(http.MethodPut, "/api/settings", map[string]any{"wheel": "nope"}, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown wheel, got %d", status)
	}

	if status := api.do(http.MethodPut, "/api/settings", map[string]any{"currency": "sek", "dropsPerMl": 25, "theme": "dark"}, &settings); status != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", status)
	}
	if settings.Currency != "SEK" || settings.Symbol != "kr" || settings.DropsPerMl != 25 || settings.Theme != models.ThemeDark {
		t.Fatalf("unexpected updated settings: %+v", settings)
	}
}

func TestCustomWheelUpload(t *testing.T) {
	api := newTestAPI(t)

	doc := `
id = "studio"
name = "Studio Wheel"
version = "1"

[[families]]
id = "citrus"
name = "Citrus"

[[families]]
id = "woody"
name = "Woody"

[compatibility]
citrus = ["woody"]
`
	var uploaded wheel.Document
	if status := api.do(http.MethodPut, "/api/wheel?activate=true", doc, &uploaded); status != http.StatusOK {
		t.Fatalf("expected 200 uploading wheel, got %d", status)
	}
	if uploaded.ID != "studio" || len(uploaded.Families) != 2 {
		t.Fatalf("unexpected uploaded wheel: %+v", uploaded)
	}

	var active wheel.Document
	api.do(http.MethodGet, "/api/wheel", nil, &active)
	if active.ID != "studio" {
		t.Fatalf("expected uploaded wheel to be active, got %q", active.ID)
	}

	var builtin wheel.Document
	api.do(http.MethodGet, "/api/wheel?id=default", nil, &builtin)
	if builtin.ID != "default" || len(builtin.Families) != 9 {
		t.Fatalf("expected built-in wheel, got %q with %d families", builtin.ID, len(builtin.Families))
	}

	if status := api.do(http.MethodPut, "/api/wheel", `families = []`, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty wheel, got %d", status)
	}

	anonymous := "name = \"Nameless\"\n\n[[families]]\nid = \"citrus\"\nname = \"Citrus\"\n"
	if status := api.do(http.MethodPut, "/api/wheel?activate=true", anonymous, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a wheel without id, got %d", status)
	}
	api.do(http.MethodGet, "/api/wheel", nil, &active)
	if active.ID != "studio" {
		t.Fatalf("expected studio to stay active, got %q", active.ID)
	}

	var docs []wheel.Document
	api.do(http.MethodGet, "/api/wheels", nil, &docs)
	if len(docs) != 1 || docs[0].ID != "studio" {
		t.Fatalf("expected stored wheel listed, got %+v", docs)
	}
}

func TestLuckyLoadsWorkingFormula(t *testing.T) {
	api := newTestAPI(t)

	if status := api.do(http.MethodPost, "/api/lucky", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 with an empty catalog, got %d", status)
	}

	api.seed(bergamot, rose, cedar,
		models.Ingredient{Name: "Lemon", Family: "citrus", NoteType: "top", PricePerMl: 1},
		models.Ingredient{Name: "Jasmine", Family: "floral", NoteType: "middle", PricePerMl: 6},
		models.Ingredient{Name: "Vetiver", Family: "woody", NoteType: "base", PricePerMl: 3},
	)

	var body formulaBody
	if status := api.do(http.MethodPost, "/api/lucky", map[string]any{"seed": 7, "candidates": 3}, &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body.State != composer.StateEditing || body.Formula.Len() < 3 {
		t.Fatalf("expected a generated formula, got %+v", body.Formula)
	}

	var again formulaBody
	api.do(http.MethodGet, "/api/formula", nil, &again)
	if again.Formula.Name != body.Formula.Name || again.Formula.Len() != body.Formula.Len() {
		t.Fatalf("expected generated formula in session, got %+v", again.Formula)
	}
}

func TestExportImportAndClear(t *testing.T) {
	source := newTestAPI(t)
	rows := source.seed(bergamot, rose)
	saveComposition(t, source, "Export Me", rows...)

	var bundle recipe.Bundle
	if status := source.do(http.MethodGet, "/api/export", nil, &bundle); status != http.StatusOK {
		t.Fatalf("expected 200 on export, got %d", status)
	}
	if bundle.Version != recipe.BundleVersion || len(bundle.Ingredients) != 2 || len(bundle.Compositions) != 1 {
		t.Fatalf("unexpected bundle: %+v", bundle)
	}

	var csv string
	source.do(http.MethodGet, "/api/export/ingredients.csv", nil, &csv)
	if !strings.HasPrefix(csv, "Name,Family,Note Type") || !strings.Contains(csv, "Bergamot") {
		t.Fatalf("unexpected csv export:\n%s", csv)
	}

	target := newTestAPI(t)
	var result db.ImportResult
	if status := target.do(http.MethodPost, "/api/import", bundle, &result); status != http.StatusOK {
		t.Fatalf("expected 200 on import, got %d", status)
	}
	if result.Ingredients != 2 || result.Compositions != 1 {
		t.Fatalf("unexpected import result: %+v", result)
	}
	if status := target.do(http.MethodPost, "/api/import", map[string]any{}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty bundle, got %d", status)
	}

	var stats db.Stats
	target.do(http.MethodGet, "/api/stats", nil, &stats)
	if stats.TotalIngredients != 2 || stats.TotalCompositions != 1 || stats.InventoryValue != 18 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if status := target.do(http.MethodDelete, "/api/data", nil, nil); status != http.StatusNoContent {
		t.Fatalf("expected 204 clearing data, got %d", status)
	}
	target.do(http.MethodGet, "/api/stats", nil, &stats)
	if stats.TotalIngredients != 0 || stats.TotalCompositions != 0 {
		t.Fatalf("expected empty store, got %+v", stats)
	}
}

func TestHandlersWithoutDependencies(t *testing.T) {
	originalSessions, originalStore, originalWheels := sessionManager, store, wheels
	Configure(nil, nil, nil, composer.DefaultSettings())
	t.Cleanup(func() {
		sessionManager, store, wheels = originalSessions, originalStore, originalWheels
	})

	cases := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		path    string
	}{
		{"ingredients", IngredientResource, http.MethodGet, "/api/ingredients"},
		{"compositions", CompositionResource, http.MethodGet, "/api/compositions"},
		{"formula", Formula, http.MethodGet, "/api/formula"},
		{"stats", Stats, http.MethodGet, "/api/stats"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.handler(rr, httptest.NewRequest(tc.method, tc.path, nil))
			if rr.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", rr.Code)
			}
		})
	}
}

func TestRequestContextKeepsInboundID(t *testing.T) {
	handler := RequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected inbound request id echoed, got %q", got)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(rr.Header().Get(requestIDHeader)); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", rr.Header().Get(requestIDHeader))
	}
}

func TestMustRegisterPanicsOnEmptyTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty validation tag")
		}
	}()
	mustRegister(validator.New(), "", validateCurrency)
}

func TestFormatValidationError(t *testing.T) {
	err := requestValidator.ValidateStruct(ingredientRequest{Intensity: 11, PricePerMl: -1})
	fields := FormatValidationError(err)
	want := map[string]string{
		"name":         "This field is required",
		"family":       "This field is required",
		"price_per_ml": "Must be 0 or more",
		"intensity":    "Must be 10 or less",
	}
	for field, message := range want {
		if fields[field] != message {
			t.Fatalf("field %s: expected %q, got %q", field, message, fields[field])
		}
	}
	if got := FormatValidationError(fmt.Errorf("boom")); got["error"] == "" {
		t.Fatalf("expected generic error entry, got %v", got)
	}
}
