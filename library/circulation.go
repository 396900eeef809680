package library

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// keyedMutex hands out one mutex per book identifier so two concurrent
// checkouts of the same book serialize before either reads the availability
// flag. Entries are never reclaimed; a library's catalog is small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Checkout opens a loan for the given book and member and flips the book's
// checked-out flag, as one transaction. Preconditions, checked in order:
// the due date must not precede the checkout date (ErrInvalidDateRange), the
// member must exist and be active (ErrMemberIneligible), and the book must
// exist (ErrNotFound), be active, and not already be out (ErrBookUnavailable).
//
// The flag flip is a guarded update re-checked inside the transaction, and
// the whole operation holds the book's advisory lock, so of two concurrent
// checkouts for one book at most one can succeed.
func (d *Database) Checkout(bookID, memberID int64, checkoutDate, dueDate time.Time) (*Loan, error) {
	if dueDate.Before(checkoutDate) {
		return nil, fmt.Errorf("due %s before checkout %s: %w",
			formatDate(dueDate), formatDate(checkoutDate), ErrInvalidDateRange)
	}

	unlock := d.bookLocks.lock(bookID)
	defer unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return nil, translateStoreErr(err)
	}
	defer tx.Rollback()

	var memberActive bool
	err = tx.QueryRow(`SELECT active FROM members WHERE id=?`, memberID).Scan(&memberActive)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %d: %w", memberID, ErrMemberIneligible)
	}
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if !memberActive {
		return nil, fmt.Errorf("member %d is inactive: %w", memberID, ErrMemberIneligible)
	}

	var bookActive, checkedOut bool
	err = tx.QueryRow(`SELECT active, is_checked_out FROM books WHERE id=?`, bookID).Scan(&bookActive, &checkedOut)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book %d: %w", bookID, ErrNotFound)
	}
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if !bookActive {
		return nil, fmt.Errorf("book %d is inactive: %w", bookID, ErrBookUnavailable)
	}
	if checkedOut {
		return nil, fmt.Errorf("book %d is already checked out: %w", bookID, ErrBookUnavailable)
	}

	// Guarded flip: affects zero rows if another writer got here first.
	res, err := tx.Exec(`UPDATE books SET is_checked_out=1 WHERE id=? AND is_checked_out=0 AND active=1`, bookID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, translateStoreErr(err)
	} else if n == 0 {
		return nil, fmt.Errorf("book %d is already checked out: %w", bookID, ErrBookUnavailable)
	}

	res, err = tx.Exec(`INSERT INTO loans(book_id,member_id,checkout_date,due_date,return_date) VALUES(?,?,?,?,NULL)`,
		bookID, memberID, formatDate(checkoutDate), formatDate(dueDate))
	if err != nil {
		return nil, translateStoreErr(err)
	}
	loanID, err := res.LastInsertId()
	if err != nil {
		return nil, translateStoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateStoreErr(err)
	}

	d.logger.Info("checkout", "loan", loanID, "book", bookID, "member", memberID, "due", formatDate(dueDate))
	return &Loan{
		ID:           loanID,
		BookID:       bookID,
		MemberID:     memberID,
		CheckoutDate: checkoutDate,
		DueDate:      dueDate,
	}, nil
}

// ReturnLoan closes an open loan and flips the referenced book back to
// available, as one transaction. A loan that is already closed and a loan
// that never existed both report ErrNotFound; the store does not tell the
// two apart.
func (d *Database) ReturnLoan(loanID int64, returnDate time.Time) error {
	tx, err := d.db.Begin()
	if err != nil {
		return translateStoreErr(err)
	}
	defer tx.Rollback()

	var bookID int64
	err = tx.QueryRow(`SELECT book_id FROM loans WHERE id=? AND return_date IS NULL`, loanID).Scan(&bookID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no open loan %d: %w", loanID, ErrNotFound)
	}
	if err != nil {
		return translateStoreErr(err)
	}

	res, err := tx.Exec(`UPDATE loans SET return_date=? WHERE id=? AND return_date IS NULL`,
		formatDate(returnDate), loanID)
	if err != nil {
		return translateStoreErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return translateStoreErr(err)
	} else if n == 0 {
		return fmt.Errorf("no open loan %d: %w", loanID, ErrNotFound)
	}

	if _, err := tx.Exec(`UPDATE books SET is_checked_out=0 WHERE id=?`, bookID); err != nil {
		return translateStoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return translateStoreErr(err)
	}
	d.logger.Info("return", "loan", loanID, "book", bookID, "date", formatDate(returnDate))
	return nil
}

// ListOverdue returns every open loan whose due date has passed as of the
// given date, earliest due first.
func (d *Database) ListOverdue(asOf time.Time) ([]*Loan, error) {
	return d.queryLoans(`SELECT id,book_id,member_id,checkout_date,due_date,return_date
        FROM loans WHERE return_date IS NULL AND due_date < ? ORDER BY due_date ASC`, formatDate(asOf))
}

// LoansByMember returns a member's loans ordered by due date. With openOnly
// set, closed loans are skipped.
func (d *Database) LoansByMember(memberID int64, openOnly bool) ([]*Loan, error) {
	q := `SELECT id,book_id,member_id,checkout_date,due_date,return_date FROM loans WHERE member_id=?`
	if openOnly {
		q += ` AND return_date IS NULL`
	}
	q += ` ORDER BY due_date ASC`
	return d.queryLoans(q, memberID)
}

// LoansByBook returns a book's loan history ordered by due date. With
// openOnly set, at most one loan can come back.
func (d *Database) LoansByBook(bookID int64, openOnly bool) ([]*Loan, error) {
	q := `SELECT id,book_id,member_id,checkout_date,due_date,return_date FROM loans WHERE book_id=?`
	if openOnly {
		q += ` AND return_date IS NULL`
	}
	q += ` ORDER BY due_date ASC`
	return d.queryLoans(q, bookID)
}

func (d *Database) queryLoans(query string, args ...any) ([]*Loan, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	defer rows.Close()

	var loans []*Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, translateStoreErr(err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreErr(err)
	}
	return loans, nil
}
