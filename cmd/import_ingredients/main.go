package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"organ/internal/composer"
	"organ/internal/config"
	"organ/internal/db"
	"organ/models"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

const defaultCSVPath = "ingredients.csv"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	csvPath := defaultCSVPath
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	summary, err := importFile(context.Background(), db.NewStore(database), csvPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d ingredients from %s (%d new, %d updated, %d skipped)\n",
		summary.created+summary.updated, filepath.Base(csvPath), summary.created, summary.updated, summary.skipped)
	return nil
}

type importSummary struct {
	created int
	updated int
	skipped int
}

// columnAliases maps accepted header spellings onto the keys buildIngredient
// reads. Headers are compared lower-cased with runs of space, '_' and '-'
// collapsed to one space.
var columnAliases = map[string]string{
	"name":         "name",
	"ingredient":   "name",
	"family":       "family",
	"note type":    "note type",
	"note":         "note type",
	"tier":         "note type",
	"intensity":    "intensity",
	"price per ml": "price per ml",
	"price/ml":     "price per ml",
	"price":        "price per ml",
	"notes":        "notes",
	"description":  "notes",
}

var headerSeparators = regexp.MustCompile(`[\s_-]+`)

func canonicalColumn(header string) string {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	key = headerSeparators.ReplaceAllString(key, " ")
	if alias, ok := columnAliases[key]; ok {
		return alias
	}
	return key
}

func importFile(ctx context.Context, store *db.Store, csvPath string) (importSummary, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return importSummary{}, fmt.Errorf("read csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	headerRow, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return importSummary{}, errors.New("read csv: csv is empty")
	}
	if err != nil {
		return importSummary{}, fmt.Errorf("read csv: %w", err)
	}
	header := make([]string, len(headerRow))
	for idx, key := range headerRow {
		header[idx] = canonicalColumn(key)
	}

	var summary importSummary
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, fmt.Errorf("read csv: %w", err)
		}

		record := make(map[string]string, len(header))
		for idx, value := range row {
			if idx < len(header) {
				record[header[idx]] = strings.TrimSpace(value)
			}
		}
		ingredient, ok := buildIngredient(record)
		if !ok {
			summary.skipped++
			continue
		}
		created, err := store.UpsertIngredientByName(ctx, &ingredient)
		if err != nil {
			return summary, fmt.Errorf("line %d (%s): %w", line, ingredient.Name, err)
		}
		if created {
			summary.created++
		} else {
			summary.updated++
		}
	}
}

// buildIngredient maps a CSV row onto a catalog entry. Rows without a name or
// family cannot be stored and report false.
func buildIngredient(row map[string]string) (models.Ingredient, bool) {
	name := normalizeText(row["name"])
	family := strings.ToLower(normalizeValue(row["family"]))
	if name == "" || family == "" {
		return models.Ingredient{}, false
	}

	ingredient := models.Ingredient{
		Name:       name,
		Family:     family,
		PricePerMl: parseFirstNumber(row["price per ml"]),
		Intensity:  int(parseFirstNumber(row["intensity"])),
		Notes:      normalizeText(row["notes"]),
	}
	if tier, ok := composer.ParseNoteType(row["note type"]); ok {
		ingredient.NoteType = string(tier)
	}
	return ingredient, true
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func parseFirstNumber(value string) float64 {
	value = normalizeValue(value)
	if value == "" {
		return 0
	}

	match := numberPattern.FindString(value)
	if match == "" {
		return 0
	}

	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
