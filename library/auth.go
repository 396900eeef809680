package library

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrAuthFailed is returned when a password does not match or no password
// has been set for the member.
var ErrAuthFailed = errors.New("authentication failed")

// SetMemberPassword hashes and stores a password for the member.
func (d *Database) SetMemberPassword(memberID int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := d.db.Exec(`UPDATE members SET password_hash=? WHERE id=?`, string(hash), memberID)
	if err != nil {
		return translateStoreErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return translateStoreErr(err)
	} else if n == 0 {
		return fmt.Errorf("member %d: %w", memberID, ErrNotFound)
	}
	return nil
}

// AuthenticateMember verifies a member's password. Members without a stored
// password cannot authenticate.
func (d *Database) AuthenticateMember(memberID int64, password string) error {
	var hash sql.NullString
	err := d.db.QueryRow(`SELECT password_hash FROM members WHERE id=?`, memberID).Scan(&hash)
	if err == sql.ErrNoRows {
		return fmt.Errorf("member %d: %w", memberID, ErrNotFound)
	}
	if err != nil {
		return translateStoreErr(err)
	}
	if !hash.Valid || hash.String == "" {
		return fmt.Errorf("member %d has no password set: %w", memberID, ErrAuthFailed)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash.String), []byte(password)); err != nil {
		return fmt.Errorf("member %d: %w", memberID, ErrAuthFailed)
	}
	return nil
}
