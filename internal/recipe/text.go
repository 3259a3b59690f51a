package recipe

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"organ/internal/composer"
	"organ/internal/units"
)

const (
	heavyRule = "═══════════════════════════════════════════════════"
	lightRule = "───────────────────────────────────────────────────"
)

var whitespace = regexp.MustCompile(`\s+`)

// Text renders a composition as a bench recipe grouped by tier.
func Text(c composer.Composition, currency string) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", heavyRule)
	line("  %s", c.Name)
	line("%s", heavyRule)
	line("")
	line("SUMMARY")
	line("%s", lightRule)
	line("Total Volume: %.2f ml (%d drops)", c.Totals.Volume, c.Totals.Drops)
	line("Total Cost: %s", FormatPrice(c.Totals.Cost, currency))
	line("Cost per ML: %s", FormatPrice(c.Totals.CostPerVolume, currency))
	line("Harmony Score: %d%%", c.HarmonyScore)
	line("")
	line("FORMULA")
	line("%s", lightRule)

	unit := c.Mode.Canonical()
	for _, tier := range composer.NoteTypes {
		var rows []composer.CompositionIngredient
		for _, ing := range c.Ingredients {
			if tierOf(ing) == tier {
				rows = append(rows, ing)
			}
		}
		if len(rows) == 0 {
			continue
		}
		line("")
		line("%s NOTES:", strings.ToUpper(tier.Label()))
		for _, ing := range rows {
			line("  %-30s %s (%.1f%%)", ing.IngredientName, formatAmount(ing.Amount, unit), ing.Percentage)
		}
	}

	line("")
	line("%s", lightRule)
	line("Created: %s", c.Created.Format("2006-01-02 15:04"))
	version := c.Version
	if version < 1 {
		version = 1
	}
	line("Version: %d", version)
	b.WriteString(heavyRule)
	return b.String()
}

// FileName returns the download name for a recipe of c.
func FileName(name string) string {
	slug := whitespace.ReplaceAllString(strings.TrimSpace(name), "-")
	if slug == "" {
		slug = "composition"
	}
	return slug + "-recipe.txt"
}

// BackupFileName returns the download name for a full backup taken at now.
func BackupFileName(now time.Time) string {
	return "perfumer-organ-backup-" + now.Format("2006-01-02") + ".json"
}

func tierOf(ing composer.CompositionIngredient) composer.NoteType {
	return composer.Ingredient{NoteType: ing.NoteType}.EffectiveNoteType()
}

func formatAmount(amount float64, unit units.Unit) string {
	if unit == units.Volume {
		return fmt.Sprintf("%.2f ml", amount)
	}
	return fmt.Sprintf("%.0f drops", amount)
}
