package store

import "errors"

// Sentinel errors returned by repository methods. Match with errors.Is.
var (
	// ErrNotFound is returned when no contact has the requested id.
	ErrNotFound = errors.New("contact was not found")

	// ErrUnsupportedDriver is returned by Open for drivers other than
	// sqlite3 and pgx.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Low-level database operation errors, wrapped with the driver error.
var (
	ErrBuildingSQLQuery     = errors.New("error building sql query")
	ErrExecutingQuery       = errors.New("error executing sql query")
	ErrBeginningTransaction = errors.New("failed to begin transaction")
	ErrCommitingTransaction = errors.New("failed to commit transaction")
	ErrScanningRow          = errors.New("failed to scan contact row")
	ErrScanningRows         = errors.New("failed to scan contact rows")

	// ErrHook wraps a failure of the encryption hooks around a query.
	ErrHook = errors.New("field encryption hook failed")
)
