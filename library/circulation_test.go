package library

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func circulationFixture(t *testing.T) (*Database, int64, int64) {
	t.Helper()
	db := tempDB(t)
	bookID, err := db.AddBook("The Odyssey", "Homer")
	require.NoError(t, err)
	memberID, err := db.AddMember("Alice", "Archer")
	require.NoError(t, err)
	return db, bookID, memberID
}

func TestCheckoutReturnRoundTrip(t *testing.T) {
	db, bookID, memberID := circulationFixture(t)

	out := Date(2026, time.February, 1)
	due := Date(2026, time.February, 15)

	loan, err := db.Checkout(bookID, memberID, out, due)
	require.NoError(t, err)
	require.NotZero(t, loan.ID)
	assert.True(t, loan.Open())

	b, err := db.GetBook(bookID)
	require.NoError(t, err)
	assert.True(t, b.CheckedOut, "checkout must flip the book flag")

	require.NoError(t, db.ReturnLoan(loan.ID, Date(2026, time.February, 10)))

	b, err = db.GetBook(bookID)
	require.NoError(t, err)
	assert.False(t, b.CheckedOut, "return must restore availability")

	closed, err := db.GetLoan(loan.ID)
	require.NoError(t, err)
	assert.False(t, closed.Open())
	require.NotNil(t, closed.ReturnDate)
	assert.Equal(t, Date(2026, time.February, 10), *closed.ReturnDate)
}

func TestCheckoutRejectsDoubleCheckout(t *testing.T) {
	db, bookID, memberID := circulationFixture(t)
	otherID, err := db.AddMember("Bob", "Baker")
	require.NoError(t, err)

	out := Date(2026, time.March, 1)
	due := Date(2026, time.March, 15)

	_, err = db.Checkout(bookID, memberID, out, due)
	require.NoError(t, err)

	_, err = db.Checkout(bookID, otherID, out, due)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	// Exactly one open loan exists for the book.
	open, err := db.LoansByBook(bookID, true)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestCheckoutConcurrentAtMostOneSucceeds(t *testing.T) {
	db, bookID, _ := circulationFixture(t)

	const callers = 8
	memberIDs := make([]int64, callers)
	for i := range memberIDs {
		id, err := db.AddMember("Member", string(rune('A'+i)))
		require.NoError(t, err)
		memberIDs[i] = id
	}

	out := Date(2026, time.March, 1)
	due := Date(2026, time.March, 15)

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(memberID int64) {
			defer wg.Done()
			_, err := db.Checkout(bookID, memberID, out, due)
			results <- err
		}(memberIDs[i])
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrBookUnavailable)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent checkout may win")

	open, err := db.LoansByBook(bookID, true)
	require.NoError(t, err)
	assert.Len(t, open, 1, "book must never carry two open loans")
}

func TestCheckoutPreconditions(t *testing.T) {
	db, bookID, memberID := circulationFixture(t)

	out := Date(2026, time.April, 1)
	due := Date(2026, time.April, 15)

	t.Run("due date before checkout date", func(t *testing.T) {
		_, err := db.Checkout(bookID, memberID, due, out)
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("missing member", func(t *testing.T) {
		_, err := db.Checkout(bookID, 999, out, due)
		assert.ErrorIs(t, err, ErrMemberIneligible)
	})

	t.Run("inactive member", func(t *testing.T) {
		require.NoError(t, db.SetActive(KindMember, memberID, false))
		_, err := db.Checkout(bookID, memberID, out, due)
		assert.ErrorIs(t, err, ErrMemberIneligible)
		require.NoError(t, db.SetActive(KindMember, memberID, true))
	})

	t.Run("missing book", func(t *testing.T) {
		_, err := db.Checkout(999, memberID, out, due)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("inactive book", func(t *testing.T) {
		require.NoError(t, db.SetActive(KindBook, bookID, false))
		_, err := db.Checkout(bookID, memberID, out, due)
		assert.ErrorIs(t, err, ErrBookUnavailable)
		require.NoError(t, db.SetActive(KindBook, bookID, true))
	})

	// None of the failures may have opened a loan or touched the flag.
	b, err := db.GetBook(bookID)
	require.NoError(t, err)
	assert.False(t, b.CheckedOut)
	loans, err := db.LoansByBook(bookID, false)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestReturnLoanNotFound(t *testing.T) {
	db, bookID, memberID := circulationFixture(t)

	// Never existed.
	err := db.ReturnLoan(42, Date(2026, time.May, 1))
	assert.ErrorIs(t, err, ErrNotFound)

	// Already closed reports the same way.
	loan, err := db.Checkout(bookID, memberID, Date(2026, time.May, 1), Date(2026, time.May, 15))
	require.NoError(t, err)
	require.NoError(t, db.ReturnLoan(loan.ID, Date(2026, time.May, 10)))

	err = db.ReturnLoan(loan.ID, Date(2026, time.May, 12))
	assert.ErrorIs(t, err, ErrNotFound)

	// The second return must not move the recorded date.
	closed, err := db.GetLoan(loan.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ReturnDate)
	assert.Equal(t, Date(2026, time.May, 10), *closed.ReturnDate)
}

func TestOverdueMonotonicity(t *testing.T) {
	due := Date(2026, time.February, 15)
	loan := &Loan{
		ID:           1,
		BookID:       1,
		MemberID:     1,
		CheckoutDate: Date(2026, time.February, 1),
		DueDate:      due,
	}

	for _, asOf := range []time.Time{
		Date(2026, time.February, 1),
		Date(2026, time.February, 14),
		due,
	} {
		assert.False(t, loan.IsOverdue(asOf), "not overdue on or before due date (%s)", asOf)
		assert.Zero(t, loan.DaysOverdue(asOf))
	}

	for _, asOf := range []time.Time{
		Date(2026, time.February, 16),
		Date(2026, time.March, 1),
		Date(2027, time.January, 1),
	} {
		assert.True(t, loan.IsOverdue(asOf), "overdue after due date (%s)", asOf)
		assert.Positive(t, loan.DaysOverdue(asOf))
	}

	// Closing freezes overdue at false, and days at exactly zero.
	returned := Date(2026, time.February, 20)
	loan.ReturnDate = &returned
	farFuture := Date(2030, time.January, 1)
	assert.False(t, loan.IsOverdue(farFuture))
	assert.Equal(t, 0, loan.DaysOverdue(farFuture), "closed loans report 0, never a stale positive count")
}

func TestDaysOverdueExample(t *testing.T) {
	loan := &Loan{
		CheckoutDate: Date(2026, time.February, 1),
		DueDate:      Date(2026, time.February, 15),
	}
	asOf := Date(2026, time.February, 18)

	assert.True(t, loan.IsOverdue(asOf))
	assert.Equal(t, 3, loan.DaysOverdue(asOf))
}

func TestListOverdueOrdering(t *testing.T) {
	db := tempDB(t)
	memberID, err := db.AddMember("Alice", "Archer")
	require.NoError(t, err)

	mkLoan := func(title string, due time.Time) *Loan {
		t.Helper()
		bookID, err := db.AddBook(title, "Author")
		require.NoError(t, err)
		loan, err := db.Checkout(bookID, memberID, Date(2026, time.January, 1), due)
		require.NoError(t, err)
		return loan
	}

	late := mkLoan("Late", Date(2026, time.January, 10))
	later := mkLoan("Later", Date(2026, time.January, 20))
	notYet := mkLoan("Not Yet", Date(2026, time.March, 1))
	closedLoan := mkLoan("Closed", Date(2026, time.January, 5))
	require.NoError(t, db.ReturnLoan(closedLoan.ID, Date(2026, time.January, 30)))

	asOf := Date(2026, time.February, 1)
	overdue, err := db.ListOverdue(asOf)
	require.NoError(t, err)

	require.Len(t, overdue, 2, "closed and not-yet-due loans are excluded")
	assert.Equal(t, late.ID, overdue[0].ID, "earliest due date first")
	assert.Equal(t, later.ID, overdue[1].ID)
	_ = notYet

	// A loan due exactly asOf is not overdue yet.
	boundary, err := db.ListOverdue(Date(2026, time.January, 20))
	require.NoError(t, err)
	require.Len(t, boundary, 1)
	assert.Equal(t, late.ID, boundary[0].ID)
}

func TestLoansByMemberAndBook(t *testing.T) {
	db := tempDB(t)
	alice, err := db.AddMember("Alice", "Archer")
	require.NoError(t, err)
	bob, err := db.AddMember("Bob", "Baker")
	require.NoError(t, err)
	bookID, err := db.AddBook("Shared", "Author")
	require.NoError(t, err)

	first, err := db.Checkout(bookID, alice, Date(2026, time.January, 1), Date(2026, time.January, 15))
	require.NoError(t, err)
	require.NoError(t, db.ReturnLoan(first.ID, Date(2026, time.January, 10)))

	second, err := db.Checkout(bookID, bob, Date(2026, time.February, 1), Date(2026, time.February, 15))
	require.NoError(t, err)

	history, err := db.LoansByBook(bookID, false)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	open, err := db.LoansByBook(bookID, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)

	aliceLoans, err := db.LoansByMember(alice, true)
	require.NoError(t, err)
	assert.Empty(t, aliceLoans, "alice's loan is closed")

	bobLoans, err := db.LoansByMember(bob, false)
	require.NoError(t, err)
	require.Len(t, bobLoans, 1)
	assert.Equal(t, second.ID, bobLoans[0].ID)
}
