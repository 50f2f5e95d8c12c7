package schema

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// NoRelationshipsMarker is emitted when inference finds nothing, so prompt
// assembly never silently omits the relationships section.
const NoRelationshipsMarker = "-- no relationships detected"

// Hint is one inferred foreign-key candidate. Inference is heuristic: false
// positives from substring matches and false negatives from unconventional
// naming are expected. Confidence lets callers filter — 1.0 for exact or
// plural-form table matches, 0.5 for substring containment.
type Hint struct {
	Text       string
	Confidence float64
}

// InferRelationships derives candidate foreign-key hints from naming
// conventions: a column ending in "_id" or "id" is assumed to reference a
// table whose name matches the stripped base name. Duplicate hints (by
// rendered text) are suppressed. When nothing is found the result is a single
// marker hint so the section is always present downstream.
func InferRelationships(m *Model) []Hint {
	var hints []Hint
	seen := make(map[string]struct{})

	for _, source := range m.Tables() {
		for _, col := range source.Columns {
			base := idBaseName(col.Name)
			if base == "" {
				continue
			}

			for _, target := range m.Tables() {
				if target.Name == source.Name {
					continue
				}

				match, confidence := tableNameMatch(target.Name, base)
				if !match {
					continue
				}

				text := fmt.Sprintf("%s.%s might reference %s.%s",
					source.Name, col.Name, target.Name, targetIDColumn(target, col.Name))
				if _, dup := seen[text]; dup {
					continue
				}
				seen[text] = struct{}{}
				hints = append(hints, Hint{Text: text, Confidence: confidence})
			}
		}
	}

	if len(hints) == 0 {
		return []Hint{{Text: NoRelationshipsMarker, Confidence: 0}}
	}
	return hints
}

// idBaseName strips an "_id" or "id" suffix from a column name and returns
// the remaining base, or "" if the column does not look like a reference.
func idBaseName(column string) string {
	lower := strings.ToLower(column)
	switch {
	case strings.HasSuffix(lower, "_id"):
		return column[:len(column)-3]
	case strings.HasSuffix(lower, "id") && len(column) > 2:
		return column[:len(column)-2]
	default:
		return ""
	}
}

// tableNameMatch reports whether tableName plausibly names the entity base,
// and how confident the match is. Exact and singular/plural matches are
// strong; substring containment in either direction is weak but kept, since
// dump table names are often prefixed or suffixed.
func tableNameMatch(tableName, base string) (bool, float64) {
	table := strings.ToLower(tableName)
	b := strings.ToLower(base)
	if b == "" {
		return false, 0
	}

	if table == b ||
		table == inflection.Plural(b) ||
		inflection.Singular(table) == b ||
		table == b+"s" || table == b+"es" {
		return true, 1.0
	}

	if strings.Contains(table, b) || strings.Contains(b, table) {
		return true, 0.5
	}

	return false, 0
}

// targetIDColumn picks the column on the target table the reference most
// likely points at: an exact name match, then a bare "id", then the source
// column name as a fallback.
func targetIDColumn(target *Table, sourceColumn string) string {
	for _, col := range target.Columns {
		if col.Name == sourceColumn {
			return col.Name
		}
	}
	for _, col := range target.Columns {
		if strings.EqualFold(col.Name, "id") {
			return col.Name
		}
	}
	return sourceColumn
}
