package handlers

import (
	"math/rand/v2"
	"net/http"

	applog "organ/internal/log"
	"organ/internal/lucky"
	"organ/internal/metrics"
)

type luckyRequest struct {
	Seed       *uint64 `json:"seed"`
	Candidates int     `json:"candidates" validate:"gte=0,lte=50"`
}

// Lucky generates a random composition from the catalog and loads it as the
// working formula. With candidates > 1 the most harmonious draw wins.
func Lucky(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req luckyRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req, "lucky") {
			return
		}
	}

	ctx := r.Context()
	catalog, err := store.Catalog(ctx)
	if err != nil {
		writeFailure(w, r, "generate composition", err)
		return
	}
	settings, g, err := environment(ctx)
	if err != nil {
		writeFailure(w, r, "generate composition", err)
		return
	}

	var gen *lucky.Generator
	if req.Seed != nil {
		gen = lucky.NewSeeded(*req.Seed)
	} else {
		gen = lucky.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	n := max(req.Candidates, 1)
	best, err := gen.Best(n, catalog, g, settings)
	if err != nil {
		writeFailure(w, r, "generate composition", err)
		return
	}
	metrics.LuckyGenerated.Add(float64(n))

	if err := storeFormula(ctx, best.Formula); err != nil {
		writeFailure(w, r, "generate composition", err)
		return
	}
	applog.Info(ctx, "lucky composition generated", "name", best.Formula.Name, "entries", best.Formula.Len(), "harmony", best.Scored.Harmony.Score)
	respondFormula(w, r, best.Formula, nil)
}
