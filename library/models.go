package library

import "time"

// dateLayout is the on-disk format for calendar dates. Loans track whole
// days, so everything is stored at UTC midnight.
const dateLayout = "2006-01-02"

// Book represents a title in the catalog and its current circulation state.
// CheckedOut is maintained by the circulation operations and is true exactly
// when one open loan references the book.
type Book struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	CheckedOut bool   `json:"is_checked_out"`
	Active     bool   `json:"active"`
}

// Member represents a registered library member. Members are never deleted,
// only deactivated.
type Member struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FinesDue  int64  `json:"fines_due"`
	Active    bool   `json:"active"`
}

// Loan links a book to the member holding it. A loan is open while
// ReturnDate is nil and closed once set; closing is one-way.
type Loan struct {
	ID           int64      `json:"id"`
	BookID       int64      `json:"book_id"`
	MemberID     int64      `json:"member_id"`
	CheckoutDate time.Time  `json:"checkout_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
}

// Open reports whether the loan has not yet been returned.
func (l *Loan) Open() bool { return l.ReturnDate == nil }

// IsOverdue reports whether the loan is past due as of the given date.
// Closed loans are never overdue, regardless of when they were returned.
func (l *Loan) IsOverdue(asOf time.Time) bool {
	return l.Open() && asOf.After(l.DueDate)
}

// DaysOverdue returns how many whole days the loan is past due as of the
// given date, or exactly 0 when IsOverdue is false. A closed loan reports 0
// even if its due date is long past.
func (l *Loan) DaysOverdue(asOf time.Time) int {
	if !l.IsOverdue(asOf) {
		return 0
	}
	return int(asOf.Sub(l.DueDate).Hours() / 24)
}

// Date builds a UTC calendar date, the only time granularity loans use.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
