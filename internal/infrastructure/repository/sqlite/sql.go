package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/mvallerand/footgraph/internal/usecase"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// wrapStoreErr maps driver-level constraint violations onto the integrity
// sentinel so callers can skip-and-log them per record.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s: %v", usecase.ErrIntegrity, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
