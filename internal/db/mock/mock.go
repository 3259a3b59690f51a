package mock

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"organ/internal/composer"
	"organ/internal/db"
	applog "organ/internal/log"
	"organ/internal/wheel"
	"organ/models"
)

// New returns an in-memory sqlite database seeded with a small organ: one
// ingredient per family and tier, the built-in wheel, default settings and a
// pair of saved compositions.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:organ-mock?mode=memory&cache=shared"), db.Options(logger.Silent))
	if err != nil {
		return nil, err
	}
	if sqlDB, err := database.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, db.NewStore(database)); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

var ingredients = []models.Ingredient{
	{Name: "Bergamot", Family: "citrus", NoteType: "top", PricePerMl: 0.45, Intensity: 3, Notes: "Cold-pressed Calabrian peel."},
	{Name: "Pink Pepper", Family: "spicy", NoteType: "top", PricePerMl: 0.9, Intensity: 4, Notes: "Rosy, sparkling spice."},
	{Name: "Galbanum", Family: "green", NoteType: "top", PricePerMl: 1.2, Intensity: 5, Notes: "Sharp green resin, dose sparingly."},
	{Name: "Rose Absolute", Family: "floral", NoteType: "middle", PricePerMl: 6.5, Intensity: 4, Notes: "Turkish rose, honeyed and deep."},
	{Name: "Jasmine Sambac", Family: "floral", NoteType: "middle", PricePerMl: 5.8, Intensity: 5},
	{Name: "Blackcurrant Bud", Family: "fruity", NoteType: "middle", PricePerMl: 2.1, Intensity: 4},
	{Name: "Cedarwood Atlas", Family: "woody", NoteType: "base", PricePerMl: 0.3, Intensity: 2, Notes: "Dry pencil shavings."},
	{Name: "Benzoin", Family: "oriental", NoteType: "base", PricePerMl: 0.6, Intensity: 3},
	{Name: "Vanilla Absolute", Family: "gourmand", NoteType: "base", PricePerMl: 3.4, Intensity: 4},
}

type seedLine struct {
	name   string
	amount float64
}

var compositions = []struct {
	name  string
	lines []seedLine
}{
	{
		name: "Aurum Nocturne",
		lines: []seedLine{
			{"Bergamot", 6}, {"Rose Absolute", 9}, {"Benzoin", 4}, {"Vanilla Absolute", 3},
		},
	},
	{
		name: "Lumen Celeste",
		lines: []seedLine{
			{"Pink Pepper", 3}, {"Jasmine Sambac", 8}, {"Blackcurrant Bud", 2}, {"Cedarwood Atlas", 6},
		},
	},
}

func seed(ctx context.Context, store *db.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.TotalIngredients > 0 {
		applog.Debug(ctx, "mock database already seeded")
		return nil
	}

	applog.Debug(ctx, "seeding mock database")

	byName := make(map[string]composer.Ingredient, len(ingredients))
	for _, row := range ingredients {
		ingredient := row
		if err := store.CreateIngredient(ctx, &ingredient); err != nil {
			return err
		}
		byName[ingredient.Name] = ingredient.Snapshot()
	}

	g, err := wheel.Default()
	if err != nil {
		return err
	}
	if err := store.SaveWheel(ctx, g); err != nil {
		return err
	}

	settings := composer.DefaultSettings()
	if err := store.SaveSettings(ctx, map[string]string{
		models.SettingCurrency: settings.Currency,
		models.SettingTheme:    models.DefaultTheme,
		models.SettingWheel:    g.ID(),
	}); err != nil {
		return err
	}

	for _, c := range compositions {
		f := composer.NewFormula()
		f.Rename(c.name)
		for _, line := range c.lines {
			f.AddAmount(byName[line.name], line.amount)
		}
		scored, err := composer.Score(f, g, settings)
		if err != nil {
			return err
		}
		if _, _, err := store.SaveComposition(ctx, f, scored); err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
