// Package apperrors holds the sentinel errors of the query pipeline's error
// taxonomy. Inbound validation errors surface immediately with no retry;
// generation failures surface after retry exhaustion; retrieval failures are
// absorbed and never reach the caller.
package apperrors

import "errors"

var (
	// ErrEmptyQuestion rejects blank questions before any remote call.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrQuestionTooLong rejects questions over the configured length limit.
	ErrQuestionTooLong = errors.New("question too long")

	// ErrEmptySchema rejects requests with no schema text and no configured
	// fallback.
	ErrEmptySchema = errors.New("schema is required and cannot be empty")

	// ErrNoTables means every parse strategy came up empty.
	ErrNoTables = errors.New("could not extract any table information from the provided schema")

	// ErrGenerationFailed wraps backend failures after retry exhaustion.
	ErrGenerationFailed = errors.New("sql generation failed")

	// ErrInvalidSQL means the sanitized output failed the validation policy.
	ErrInvalidSQL = errors.New("generated sql failed validation checks")
)
