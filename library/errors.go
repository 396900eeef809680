package library

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by store and circulation operations. Callers
// should match with errors.Is since most are returned wrapped with context.
var (
	// ErrDuplicateKey is returned when an insert collides with an existing
	// identifier.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when an update or return targets an identifier
	// that affected zero rows. A return on an already-closed loan reports the
	// same error as a return on a loan that never existed.
	ErrNotFound = errors.New("not found")

	// ErrBookUnavailable is returned when a checkout targets a book that is
	// already out or has been deactivated.
	ErrBookUnavailable = errors.New("book unavailable")

	// ErrMemberIneligible is returned when a checkout names a member that is
	// missing or inactive.
	ErrMemberIneligible = errors.New("member ineligible")

	// ErrInvalidDateRange is returned when a due date precedes its checkout
	// date.
	ErrInvalidDateRange = errors.New("due date precedes checkout date")

	// ErrInvalidReference is returned when a loan insert references a book or
	// member row that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidAmount is returned when a fines balance would go negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrStoreFailure wraps any other underlying storage error.
	ErrStoreFailure = errors.New("store failure")
)

// translateStoreErr maps driver-level failures onto the sentinel taxonomy so
// callers never have to inspect sqlite3 error codes themselves.
func translateStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreFailure, err)
}
