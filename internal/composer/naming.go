package composer

import (
	"fmt"
	"strings"
)

// NextUntitledName returns the default name, numbered if already taken.
func NextUntitledName(existing []string) string {
	return firstFree(existing, DefaultFormulaName, func(n int) string {
		return fmt.Sprintf("%s %d", DefaultFormulaName, n)
	})
}

// NextCopyName generates a non-conflicting name when duplicating a composition.
func NextCopyName(existing []string, base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return NextUntitledName(existing)
	}
	return firstFree(existing, base+" (Copy)", func(n int) string {
		return fmt.Sprintf("%s (Copy %d)", base, n)
	})
}

// firstFree returns first unless it collides case-insensitively with a name in
// existing, then nth(2), nth(3) and so on.
func firstFree(existing []string, first string, nth func(int) string) string {
	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		if name = strings.TrimSpace(name); name != "" {
			taken[strings.ToLower(name)] = true
		}
	}
	candidate := first
	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		candidate = nth(n)
	}
	return candidate
}
