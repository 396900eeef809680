package library

import (
	"fmt"
	"time"
)

// LibraryManager is a thin façade over the Database, keeping CLI code simple.
type LibraryManager struct {
	db         *Database
	loanPeriod int
}

// NewLibraryManager opens (or creates) the SQLite database named by cfg and
// applies the configured loan period to date-less checkouts.
func NewLibraryManager(cfg *Config, opts ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(cfg.DBPath, opts...)
	if err != nil {
		return nil, err
	}
	period := cfg.LoanPeriodDays
	if period <= 0 {
		period = DefaultConfig().LoanPeriodDays
	}
	return &LibraryManager{db: db, loanPeriod: period}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(title, author string) (int64, error) {
	return lm.db.AddBook(title, author)
}

func (lm *LibraryManager) GetBook(id int64) (*Book, error) { return lm.db.GetBook(id) }

// ------------------ Member helpers ------------------

func (lm *LibraryManager) AddMember(firstName, lastName string) (int64, error) {
	return lm.db.AddMember(firstName, lastName)
}

func (lm *LibraryManager) GetMember(id int64) (*Member, error) { return lm.db.GetMember(id) }

func (lm *LibraryManager) SetMemberPassword(id int64, password string) error {
	return lm.db.SetMemberPassword(id, password)
}

func (lm *LibraryManager) AuthenticateMember(id int64, password string) error {
	return lm.db.AuthenticateMember(id, password)
}

// ------------------ Status ------------------

func (lm *LibraryManager) SetActive(kind Kind, id int64, active bool) error {
	return lm.db.SetActive(kind, id, active)
}

func (lm *LibraryManager) SetFines(memberID, amount int64) error {
	return lm.db.SetFines(memberID, amount)
}

// ------------------ Search ------------------

func (lm *LibraryManager) SearchBooks(q string) ([]*Book, error)     { return lm.db.SearchBooks(q) }
func (lm *LibraryManager) SearchMembers(q string) ([]*Member, error) { return lm.db.SearchMembers(q) }

// ------------------ Circulation ------------------

// Checkout opens a loan with explicit dates.
func (lm *LibraryManager) Checkout(bookID, memberID int64, checkoutDate, dueDate time.Time) (*Loan, error) {
	return lm.db.Checkout(bookID, memberID, checkoutDate, dueDate)
}

// CheckoutToday opens a loan dated today with the configured loan period.
func (lm *LibraryManager) CheckoutToday(bookID, memberID int64) (*Loan, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return lm.db.Checkout(bookID, memberID, today, today.AddDate(0, 0, lm.loanPeriod))
}

// ReturnLoan closes an open loan.
func (lm *LibraryManager) ReturnLoan(loanID int64, returnDate time.Time) error {
	return lm.db.ReturnLoan(loanID, returnDate)
}

// ListOverdue lists open loans past due as of the given date.
func (lm *LibraryManager) ListOverdue(asOf time.Time) ([]*Loan, error) {
	return lm.db.ListOverdue(asOf)
}

func (lm *LibraryManager) LoansByMember(memberID int64, openOnly bool) ([]*Loan, error) {
	return lm.db.LoansByMember(memberID, openOnly)
}

func (lm *LibraryManager) LoansByBook(bookID int64, openOnly bool) ([]*Loan, error) {
	return lm.db.LoansByBook(bookID, openOnly)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	status := "available"
	if b.CheckedOut {
		status = "checked out"
	}
	if !b.Active {
		status += ", inactive"
	}
	return fmt.Sprintf("%-5d %-35s %-25s %s", b.ID, b.Title, b.Author, status)
}

// PrettyMember formats a member for lists.
func PrettyMember(m *Member) string {
	status := "active"
	if !m.Active {
		status = "inactive"
	}
	return fmt.Sprintf("%-5d %-20s %-20s fines=%-6d %s", m.ID, m.FirstName, m.LastName, m.FinesDue, status)
}

// PrettyLoan formats a loan for lists.
func PrettyLoan(l *Loan) string {
	returned := "open"
	if l.ReturnDate != nil {
		returned = "returned " + formatDate(*l.ReturnDate)
	}
	return fmt.Sprintf("%-5d book=%-5d member=%-5d out=%s due=%s %s",
		l.ID, l.BookID, l.MemberID, formatDate(l.CheckoutDate), formatDate(l.DueDate), returned)
}
