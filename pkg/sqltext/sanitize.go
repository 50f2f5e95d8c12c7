// Package sqltext cleans raw model output into a single SQL statement and
// checks it against a validation policy. Sanitization is syntactic cleanup;
// validation is the policy acceptance check. The two are deliberately
// separate so a caller can log what sanitization produced even when
// validation rejects it.
package sqltext

import (
	"fmt"
	"regexp"
	"strings"
)

// InsufficientDataSentinel is the marker the model emits when the schema
// cannot answer the question.
const InsufficientDataSentinel = "INSUFFICIENT_DATA"

// InsufficientDataSQL is the canonical query returned when the model signals
// the sentinel.
const InsufficientDataSQL = "SELECT 'INSUFFICIENT_DATA' AS message;"

// fallbackSQL is returned when nothing usable remains after cleanup.
// It must survive re-sanitization unchanged to keep Sanitize idempotent.
const fallbackSQL = "SELECT 'ERROR: Unable to generate SQL query' AS error_message;"

// leadingKeywords are the statement openers the sanitizer extracts from and
// the validator accepts, in no particular order.
var leadingKeywords = []string{
	"WITH", "SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER",
}

var (
	thinkBlockPattern   = regexp.MustCompile(`(?is)<think>.*?</think>`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentPattern  = regexp.MustCompile(`(?m)--.*$`)
	codeFencePattern    = regexp.MustCompile("(?i)```(?:sql)?")
	labelLinePattern    = regexp.MustCompile(`(?im)^\s*(explanation|answer|question|sql|query|note|output)\s*:.*$`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
	blankRunPattern     = regexp.MustCompile(`\n\s*\n+`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	sentinelPattern     = regexp.MustCompile(`(?i)insufficient[_ ]data`)
)

// keywordStartPattern finds the earliest statement opener as a whole word.
var keywordStartPattern = regexp.MustCompile(
	`(?i)\b(` + strings.Join(leadingKeywords, "|") + `)\b`)

// Sanitize cleans raw model output into a single SQL statement. It never
// returns an empty string: when nothing usable remains it returns a canonical
// error query. Sanitize is idempotent.
func Sanitize(raw string) string {
	text := raw

	// Generation artifacts: thinking blocks, comments, code fences.
	text = thinkBlockPattern.ReplaceAllString(text, " ")
	text = blockCommentPattern.ReplaceAllString(text, " ")
	text = lineCommentPattern.ReplaceAllString(text, "")
	text = codeFencePattern.ReplaceAllString(text, " ")

	// Meta-commentary lines and markup.
	text = labelLinePattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, " ")

	text = blankRunPattern.ReplaceAllString(text, "\n")
	text = strings.TrimSpace(text)

	// The sentinel overrides whatever else the model wrote.
	if sentinelPattern.MatchString(text) {
		return InsufficientDataSQL
	}

	// Discard preamble before the first statement opener. When no opener is
	// present the text is left as-is for validation to reject.
	if loc := keywordStartPattern.FindStringIndex(text); loc != nil {
		text = text[loc[0]:]
	}

	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if text == "" {
		return fallbackSQL
	}
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	return text
}

// ErrorSQL renders a pipeline-level error as a syntactically valid statement
// that selects the message. Callers expecting "a SQL string" never receive a
// non-SQL payload.
func ErrorSQL(message string) string {
	safe := strings.ReplaceAll(message, "'", "''")
	return fmt.Sprintf("/* Error: %s */\nSELECT 'ERROR: %s' AS error_message;", safe, safe)
}
