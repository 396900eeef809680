package library

import "fmt"

// SetActive flips the soft-delete flag on a book or member. Deactivation
// keeps the row and its loan history; ErrNotFound when no row matched.
func (d *Database) SetActive(kind Kind, id int64, active bool) error {
	affected, err := d.UpdateField(kind, id, "active", active)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	d.logger.Info("active flag set", "kind", string(kind), "id", id, "active", active)
	return nil
}

// SetFines overwrites a member's fines balance. The amount replaces the
// current balance rather than adding to it; negative amounts are rejected
// before any write.
func (d *Database) SetFines(memberID int64, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("fines %d: %w", amount, ErrInvalidAmount)
	}
	affected, err := d.UpdateField(KindMember, memberID, "fines_due", amount)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("member %d: %w", memberID, ErrNotFound)
	}
	return nil
}
