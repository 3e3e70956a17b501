package llm

import "errors"

// Failure kinds reported by Extract. All of them make the image outcome a
// failure; they differ only for diagnostics.
var (
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrNoDataExtracted   = errors.New("no data extracted")
)
