package usecase

import "github.com/cockroachdb/errors"

// Failure taxonomy. ErrConfig is fatal and aborts a run before any fetch;
// everything else is recoverable at the single-record level and handled by
// skip-and-log.
var (
	// ErrFetch marks a network or parse failure on one external resource,
	// raised after the provider's own retry policy is exhausted.
	ErrFetch = errors.New("fetch failed")
	// ErrValidation marks a fetched record that is structurally unusable,
	// e.g. a match without a resolvable date.
	ErrValidation = errors.New("record invalid")
	// ErrIntegrity marks an upsert that would break a referential or
	// uniqueness invariant of the store.
	ErrIntegrity = errors.New("integrity violation")
	// ErrConfig marks invalid run input, e.g. neither a team filter nor a
	// links file supplied.
	ErrConfig = errors.New("invalid configuration")
)
