// Package prompt assembles the generation prompt from the parsed schema, the
// retrieved example, relationship hints, and the question. Section order is
// fixed; empty sections are omitted. Table and column names are echoed
// exactly as parsed — the prompt never invents or normalizes identifiers.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/queryforge/queryforge-engine/pkg/qdrant"
	"github.com/queryforge/queryforge-engine/pkg/schema"
)

// complexQuestionPattern flags questions that likely need joins or analytical
// shaping, so the prompt includes join guidance.
var complexQuestionPattern = regexp.MustCompile(
	`(?i)(join|combine|merge|relationship|across|between|multiple|compare|analyze|trend|pattern|correlation|distribution|group|by)`)

var aggregationPattern = regexp.MustCompile(
	`(?i)(count|total|sum|average|avg|max|min|how many|how much)`)

var datePattern = regexp.MustCompile(
	`(?i)(date|time|year|month|week|day|recent|last|latest|oldest|before|after|since)`)

// Build renders the full generation prompt. The example is included verbatim
// whenever present, with no similarity threshold.
func Build(question string, model *schema.Model, hints []schema.Hint, example *qdrant.RetrievedExample) string {
	var b strings.Builder

	writeRules(&b)
	writeExample(&b, example)
	writeSchema(&b, model)
	writeRelationships(&b, hints)
	writeGuidance(&b, question, model)

	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("SQL QUERY:")

	return b.String()
}

func writeRules(b *strings.Builder) {
	b.WriteString("You are a SQL generator. Convert the question into a single SQL query.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use ONLY the tables and columns listed below, with their exact names.\n")
	b.WriteString("- Return ONLY the SQL query, terminated by a semicolon. No explanation.\n")
	b.WriteString("- If the schema cannot answer the question, respond with exactly: INSUFFICIENT_DATA\n\n")
}

func writeExample(b *strings.Builder, example *qdrant.RetrievedExample) {
	if example == nil {
		return
	}

	b.WriteString("=== RELEVANT EXAMPLE FROM QDRANT ===\n")
	fmt.Fprintf(b, "-- Similar Question: %s\n", example.Question)
	fmt.Fprintf(b, "-- Suggested SQL: %s\n", example.SQL)
	fmt.Fprintf(b, "-- Similarity Score: %.2f\n\n", example.Confidence)
}

func writeSchema(b *strings.Builder, model *schema.Model) {
	if model == nil || model.IsEmpty() {
		return
	}

	b.WriteString("=== TABLE STRUCTURES ===\n")
	b.WriteString(model.DDL())
	b.WriteString("\n\n")

	b.WriteString("AVAILABLE TABLES AND COLUMNS:\n")
	b.WriteString(model.ContextInfo())
	b.WriteString("\n")
}

func writeRelationships(b *strings.Builder, hints []schema.Hint) {
	if len(hints) == 0 {
		return
	}

	b.WriteString("TABLE RELATIONSHIPS:\n")
	for _, hint := range hints {
		fmt.Fprintf(b, "%s\n", hint.Text)
	}
	b.WriteString("\n")
}

// writeGuidance appends query-type hints keyed on question keywords. These
// are hints for the model, not constraints enforced in code.
func writeGuidance(b *strings.Builder, question string, model *schema.Model) {
	var lines []string

	if aggregationPattern.MatchString(question) {
		lines = append(lines, "- The question asks for an aggregate: use COUNT, SUM, AVG, MIN or MAX as appropriate.")
	}
	if datePattern.MatchString(question) {
		lines = append(lines, "- The question involves dates or time windows: filter or order on the relevant date column.")
	}
	if complexQuestionPattern.MatchString(question) {
		lines = append(lines, "- The question may span multiple tables: use JOINs on the related columns listed above, and GROUP BY where grouping is requested.")
	}
	for _, col := range matchingColumns(question, model) {
		lines = append(lines, fmt.Sprintf("- The question mentions %q, which matches column %s.%s.", col.token, col.table, col.column))
	}

	if len(lines) == 0 {
		return
	}

	b.WriteString("QUERY HINTS:\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

type columnMatch struct {
	token  string
	table  string
	column string
}

// matchingColumns finds question words that name actual columns, so the
// model is pointed at them instead of guessing near-miss identifiers.
func matchingColumns(question string, model *schema.Model) []columnMatch {
	if model == nil {
		return nil
	}

	words := make(map[string]string)
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, ".,?!'\"()")
		if len(w) > 2 {
			words[w] = w
		}
	}

	var matches []columnMatch
	seen := make(map[string]bool)
	for _, table := range model.Tables() {
		for _, col := range table.Columns {
			lower := strings.ToLower(col.Name)
			if token, ok := words[lower]; ok && !seen[table.Name+"."+col.Name] {
				seen[table.Name+"."+col.Name] = true
				matches = append(matches, columnMatch{token: token, table: table.Name, column: col.Name})
			}
		}
	}
	return matches
}
