package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"organ/internal/composer"
	"organ/internal/recipe"
	"organ/internal/wheel"
	"organ/models"
)

// ErrNilDatabase is returned by a Store without a database handle.
var ErrNilDatabase = errors.New("database not configured")

// SaveKind tells whether a save created a record or superseded one.
type SaveKind string

const (
	SaveNew    SaveKind = "new"
	SaveUpdate SaveKind = "update"
)

// Store is the record store for ingredients, compositions, wheels and settings.
type Store struct {
	db    *gorm.DB
	locks *keyedMutex
	now   func() time.Time
	newID func() string
}

// NewStore wraps a gorm handle.
func NewStore(database *gorm.DB) *Store {
	return &Store{
		db:    database,
		locks: newKeyedMutex(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNilDatabase
	}
	return s.db.WithContext(ctx), nil
}

// ListIngredients returns the catalog ordered by name.
func (s *Store) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var ingredients []models.Ingredient
	if err := conn.Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient loads one catalog entry.
func (s *Store) GetIngredient(ctx context.Context, id string) (models.Ingredient, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return models.Ingredient{}, err
	}
	var ingredient models.Ingredient
	if err := conn.First(&ingredient, "id = ?", id).Error; err != nil {
		return models.Ingredient{}, fmt.Errorf("get ingredient %s: %w", id, err)
	}
	return ingredient, nil
}

// CreateIngredient inserts ingredient, assigning an id when missing.
func (s *Store) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if ingredient.ID == "" {
		ingredient.ID = s.newID()
	}
	if err := conn.Create(ingredient).Error; err != nil {
		return fmt.Errorf("create ingredient: %w", err)
	}
	return nil
}

// UpdateIngredient replaces every column of an existing ingredient.
func (s *Store) UpdateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	var existing models.Ingredient
	if err := conn.Select("id", "created_at").First(&existing, "id = ?", ingredient.ID).Error; err != nil {
		return fmt.Errorf("update ingredient %s: %w", ingredient.ID, err)
	}
	ingredient.CreatedAt = existing.CreatedAt
	if err := conn.Save(ingredient).Error; err != nil {
		return fmt.Errorf("update ingredient %s: %w", ingredient.ID, err)
	}
	return nil
}

// UpsertIngredientByName inserts ingredient or updates the row with the same
// name. The stored id is written back into ingredient.
func (s *Store) UpsertIngredientByName(ctx context.Context, ingredient *models.Ingredient) (created bool, err error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	err = conn.Transaction(func(tx *gorm.DB) error {
		var existing models.Ingredient
		lookup := tx.Where("LOWER(name) = ?", strings.ToLower(ingredient.Name)).Limit(1).Find(&existing)
		if lookup.Error != nil {
			return lookup.Error
		}
		if lookup.RowsAffected == 0 {
			created = true
			if ingredient.ID == "" {
				ingredient.ID = s.newID()
			}
			return tx.Create(ingredient).Error
		}
		ingredient.ID = existing.ID
		ingredient.CreatedAt = existing.CreatedAt
		return tx.Save(ingredient).Error
	})
	if err != nil {
		return false, fmt.Errorf("upsert ingredient %q: %w", ingredient.Name, err)
	}
	return created, nil
}

// DeleteIngredient removes a catalog entry. Saved compositions keep their
// copied name and are skipped on load.
func (s *Store) DeleteIngredient(ctx context.Context, id string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	result := conn.Delete(&models.Ingredient{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete ingredient %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete ingredient %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Catalog returns the engine view of every ingredient.
func (s *Store) Catalog(ctx context.Context) ([]composer.Ingredient, error) {
	rows, err := s.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]composer.Ingredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Snapshot())
	}
	return out, nil
}

// Lookup loads the catalog into an id lookup for formula restores.
func (s *Store) Lookup(ctx context.Context) (composer.Lookup, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]composer.Ingredient, len(catalog))
	for _, ing := range catalog {
		byID[ing.ID] = ing
	}
	return func(id string) (composer.Ingredient, bool) {
		ing, ok := byID[id]
		return ing, ok
	}, nil
}

// SaveComposition snapshots f and persists it. Saves for the same composition
// id are serialised so the version sequence has no gaps or duplicates. A
// formula pointing at a composition that no longer exists is saved as new.
func (s *Store) SaveComposition(ctx context.Context, f *composer.Formula, scored composer.ScoredComposition) (composer.Composition, SaveKind, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return composer.Composition{}, "", err
	}
	if f == nil || f.Len() == 0 {
		return composer.Composition{}, "", composer.ErrEmptyFormula
	}

	working := f.Clone()
	var previous *composer.Composition
	if id := working.Identity(); id != "" {
		unlock := s.locks.Lock(id)
		defer unlock()

		existing, err := s.GetComposition(ctx, id)
		switch {
		case err == nil:
			previous = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			working.CompositionID = ""
			working.Version = 0
		default:
			return composer.Composition{}, "", err
		}
	}

	record, err := composer.Snapshot(working, scored, previous, s.now())
	if err != nil {
		return composer.Composition{}, "", err
	}
	kind := SaveUpdate
	if record.IsNew() {
		kind = SaveNew
		record.ID = s.newID()
	}

	if err := conn.Transaction(func(tx *gorm.DB) error {
		return replaceComposition(tx, record)
	}); err != nil {
		return composer.Composition{}, "", fmt.Errorf("save composition: %w", err)
	}
	return record, kind, nil
}

// InsertComposition stores record as a new composition, assigning an id
// when it has none.
func (s *Store) InsertComposition(ctx context.Context, record composer.Composition) (composer.Composition, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return composer.Composition{}, err
	}
	if record.ID == "" {
		record.ID = s.newID()
	}
	if record.Created.IsZero() {
		record.Created = s.now()
	}
	row := models.CompositionFromRecord(record)
	if err := conn.Create(&row).Error; err != nil {
		return composer.Composition{}, fmt.Errorf("insert composition: %w", err)
	}
	return record, nil
}

// DuplicateComposition copies a saved composition into a new lineage.
func (s *Store) DuplicateComposition(ctx context.Context, id string) (composer.Composition, error) {
	source, err := s.GetComposition(ctx, id)
	if err != nil {
		return composer.Composition{}, err
	}
	names, err := s.CompositionNames(ctx)
	if err != nil {
		return composer.Composition{}, err
	}
	return s.InsertComposition(ctx, composer.Duplicate(source, names, s.now()))
}

// ListCompositions returns saved compositions, newest first. A non-empty
// query filters by case-insensitive name match.
func (s *Store) ListCompositions(ctx context.Context, query string) ([]composer.Composition, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := conn.Preload("Ingredients").Order("created desc")
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var rows []models.Composition
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list compositions: %w", err)
	}
	out := make([]composer.Composition, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Record())
	}
	return out, nil
}

// CompositionNames returns the names of every saved composition.
func (s *Store) CompositionNames(ctx context.Context) ([]string, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := conn.Model(&models.Composition{}).Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("list composition names: %w", err)
	}
	return names, nil
}

// GetComposition loads a saved composition with its lines.
func (s *Store) GetComposition(ctx context.Context, id string) (composer.Composition, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return composer.Composition{}, err
	}
	var row models.Composition
	if err := conn.Preload("Ingredients").First(&row, "id = ?", id).Error; err != nil {
		return composer.Composition{}, fmt.Errorf("get composition %s: %w", id, err)
	}
	return row.Record(), nil
}

// DeleteComposition removes a composition and its lines.
func (s *Store) DeleteComposition(ctx context.Context, id string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("composition_id = ?", id).Delete(&models.CompositionIngredient{}).Error; err != nil {
			return fmt.Errorf("delete composition lines %s: %w", id, err)
		}
		result := tx.Delete(&models.Composition{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete composition %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("delete composition %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
}

func replaceComposition(tx *gorm.DB, record composer.Composition) error {
	if err := tx.Unscoped().Where("composition_id = ?", record.ID).Delete(&models.CompositionIngredient{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Composition{}, "id = ?", record.ID).Error; err != nil {
		return err
	}
	row := models.CompositionFromRecord(record)
	return tx.Create(&row).Error
}

// GetWheel loads a stored wheel. The built-in wheel is returned for
// "default" when none has been stored under that id.
func (s *Store) GetWheel(ctx context.Context, id string) (*wheel.Graph, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Wheel
	err = conn.First(&row, "id = ?", id).Error
	switch {
	case err == nil:
		return row.Graph()
	case errors.Is(err, gorm.ErrRecordNotFound) && id == "default":
		return wheel.Default()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("get wheel %s: %w", id, wheel.ErrUnknownWheel)
	default:
		return nil, fmt.Errorf("get wheel %s: %w", id, err)
	}
}

// SaveWheel stores g under its id, replacing any previous version.
func (s *Store) SaveWheel(ctx context.Context, g *wheel.Graph) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	row, err := models.WheelFromGraph(g)
	if err != nil {
		return err
	}
	if err := conn.Save(&row).Error; err != nil {
		return fmt.Errorf("save wheel %s: %w", row.ID, err)
	}
	return nil
}

// ListWheels returns every stored wheel document.
func (s *Store) ListWheels(ctx context.Context) ([]wheel.Document, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.Wheel
	if err := conn.Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list wheels: %w", err)
	}
	docs := make([]wheel.Document, 0, len(rows))
	for _, row := range rows {
		g, err := row.Graph()
		if err != nil {
			return nil, err
		}
		docs = append(docs, g.Document())
	}
	return docs, nil
}

// Settings returns every stored preference keyed by name.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.Setting
	if err := conn.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// SaveSettings upserts the supplied preferences.
func (s *Store) SaveSettings(ctx context.Context, values map[string]string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	rows := make([]models.Setting, 0, len(values))
	for key, value := range values {
		rows = append(rows, models.Setting{Key: key, Value: value})
	}
	err = conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Stats summarises the catalog and library.
type Stats struct {
	TotalIngredients  int64          `json:"totalIngredients"`
	TotalCompositions int64          `json:"totalCompositions"`
	InventoryValue    float64        `json:"inventoryValue"`
	FragranceFamilies int            `json:"fragranceFamilies"`
	FamilyBreakdown   map[string]int `json:"familyBreakdown"`
}

// Stats computes catalog statistics. Inventory value is the sum of unit prices.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ingredients, err := s.ListIngredients(ctx)
	if err != nil {
		return Stats{}, err
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalIngredients: int64(len(ingredients)),
		FamilyBreakdown:  make(map[string]int),
	}
	if err := conn.Model(&models.Composition{}).Count(&stats.TotalCompositions).Error; err != nil {
		return Stats{}, fmt.Errorf("count compositions: %w", err)
	}
	for _, ing := range ingredients {
		stats.InventoryValue += ing.PricePerMl
		stats.FamilyBreakdown[ing.Family]++
	}
	stats.FragranceFamilies = len(stats.FamilyBreakdown)
	return stats, nil
}

// Export collects the full backup bundle.
func (s *Store) Export(ctx context.Context) (recipe.Bundle, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return recipe.Bundle{}, err
	}
	compositions, err := s.ListCompositions(ctx, "")
	if err != nil {
		return recipe.Bundle{}, err
	}
	wheels, err := s.ListWheels(ctx)
	if err != nil {
		return recipe.Bundle{}, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return recipe.Bundle{}, err
	}

	bundle := recipe.Bundle{
		Version:      recipe.BundleVersion,
		ExportDate:   s.now(),
		Ingredients:  catalog,
		Compositions: compositions,
		Wheels:       wheels,
		Settings:     make([]recipe.Setting, 0, len(settings)),
	}
	for key, value := range settings {
		bundle.Settings = append(bundle.Settings, recipe.Setting{Key: key, Value: value})
	}
	sort.Slice(bundle.Settings, func(i, j int) bool { return bundle.Settings[i].Key < bundle.Settings[j].Key })
	return bundle, nil
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Ingredients  int `json:"ingredients"`
	Compositions int `json:"compositions"`
	Wheels       int `json:"wheels"`
	Settings     int `json:"settings"`
}

// Import merges a backup into the store. Records with matching ids are
// overwritten; everything else is left alone.
func (s *Store) Import(ctx context.Context, bundle recipe.Bundle) (ImportResult, error) {
	if err := recipe.ValidateBundle(bundle); err != nil {
		return ImportResult{}, err
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	err = conn.Transaction(func(tx *gorm.DB) error {
		for _, ing := range bundle.Ingredients {
			row := models.IngredientFromSnapshot(ing)
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("import ingredient %s: %w", ing.ID, err)
			}
			result.Ingredients++
		}
		for _, record := range bundle.Compositions {
			if record.Created.IsZero() {
				record.Created = s.now()
			}
			if record.Version < 1 {
				record.Version = 1
			}
			record.Mode = record.Mode.Canonical()
			if err := replaceComposition(tx, record); err != nil {
				return fmt.Errorf("import composition %s: %w", record.ID, err)
			}
			result.Compositions++
		}
		for _, doc := range bundle.Wheels {
			g, err := wheel.New(doc)
			if err != nil {
				return err
			}
			row, err := models.WheelFromGraph(g)
			if err != nil {
				return err
			}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("import wheel %s: %w", doc.ID, err)
			}
			result.Wheels++
		}
		for _, setting := range bundle.Settings {
			row := models.Setting{Key: setting.Key, Value: setting.Value}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("import setting %s: %w", setting.Key, err)
			}
			result.Settings++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// ClearAll deletes every ingredient and composition. Wheels and settings stay.
func (s *Store) ClearAll(ctx context.Context) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.CompositionIngredient{}, &models.Composition{}, &models.Ingredient{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return fmt.Errorf("clear data: %w", err)
			}
		}
		return nil
	})
}
