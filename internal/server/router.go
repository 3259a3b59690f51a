package server

import (
	"context"
	"net/http"

	"organ/internal/handlers"
	applog "organ/internal/log"
	"organ/internal/metrics"
)

type route struct {
	pattern string
	handler http.HandlerFunc
}

var apiRoutes = []route{
	{"/api/ingredients", handlers.IngredientResource},
	{"/api/ingredients/", handlers.IngredientResource},
	{"/api/wheel", handlers.WheelResource},
	{"/api/wheels", handlers.ListWheels},
	{"/api/settings", handlers.Settings},
	{"/api/formula", handlers.Formula},
	{"/api/formula/entries", handlers.FormulaEntries},
	{"/api/formula/entries/", handlers.FormulaEntries},
	{"/api/formula/clear", handlers.ClearFormula},
	{"/api/formula/save", handlers.SaveFormula},
	{"/api/formula/load/", handlers.LoadFormula},
	{"/api/score", handlers.Score},
	{"/api/compositions", handlers.CompositionResource},
	{"/api/compositions/", handlers.CompositionResource},
	{"/api/lucky", handlers.Lucky},
	{"/api/export", handlers.Export},
	{"/api/export/ingredients.csv", handlers.ExportIngredients},
	{"/api/import", handlers.Import},
	{"/api/stats", handlers.Stats},
	{"/api/data", handlers.ClearData},
}

// newRouter registers every route on a fresh mux. The metrics middleware
// wraps the mux directly so it sees the matched pattern.
func newRouter() http.Handler {
	ctx := context.Background()
	mux := http.NewServeMux()
	applog.Debug(ctx, "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(ctx, "route registered", "path", "/healthz")
	mux.Handle("/metrics", metrics.Handler())
	applog.Debug(ctx, "route registered", "path", "/metrics")
	for _, rt := range apiRoutes {
		mux.HandleFunc(rt.pattern, rt.handler)
	}
	applog.Debug(ctx, "api routes registered", "count", len(apiRoutes))
	return metrics.Middleware(mux)
}
