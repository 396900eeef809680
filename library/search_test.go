package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBooksRanksAvailableFirst(t *testing.T) {
	db := tempDB(t)

	first, err := db.AddBook("Odyssey", "Homer")
	require.NoError(t, err)
	second, err := db.AddBook("Odyssey Retold", "Anon")
	require.NoError(t, err)

	memberID, err := db.AddMember("Alice", "Archer")
	require.NoError(t, err)
	_, err = db.Checkout(first, memberID, Date(2026, time.January, 1), Date(2026, time.January, 15))
	require.NoError(t, err)

	results, err := db.SearchBooks("Odyssey")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second, results[0].ID, "available book ranks before checked-out one")
	assert.Equal(t, first, results[1].ID)
}

func TestSearchBooksByExactID(t *testing.T) {
	db := tempDB(t)

	target, err := db.AddBook("Alpha", "Writer One")
	require.NoError(t, err)
	_, err = db.AddBook("Beta", "Writer Two")
	require.NoError(t, err)

	results, err := db.SearchBooks("1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, target, results[0].ID)
}

func TestSearchBooksNumericQueryAlsoMatchesNames(t *testing.T) {
	db := tempDB(t)

	_, err := db.AddBook("Station 11", "Emily St. John Mandel")
	require.NoError(t, err)
	_, err = db.AddBook("Unrelated", "Nobody")
	require.NoError(t, err)

	// No book has id 11, so only the title substring hit counts.
	results, err := db.SearchBooks("11")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Station 11", results[0].Title)
}

func TestSearchBooksNonNumericQuerySkipsIDBranch(t *testing.T) {
	db := tempDB(t)

	_, err := db.AddBook("Dune", "Frank Herbert")
	require.NoError(t, err)

	results, err := db.SearchBooks("zzz-no-match")
	require.NoError(t, err)
	assert.Empty(t, results)

	blank, err := db.SearchBooks("   ")
	require.NoError(t, err)
	assert.Empty(t, blank)
}

func TestSearchBooksTieBreaksByID(t *testing.T) {
	db := tempDB(t)

	for i := 0; i < 3; i++ {
		_, err := db.AddBook("Copy of Dune", "Frank Herbert")
		require.NoError(t, err)
	}

	results, err := db.SearchBooks("Dune")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i-1].ID, results[i].ID)
	}
}

func TestSearchMembersRanksActiveFirstThenLastName(t *testing.T) {
	db := tempDB(t)

	zee, err := db.AddMember("Cat", "Zimmer")
	require.NoError(t, err)
	abe, err := db.AddMember("Cat", "Abbott")
	require.NoError(t, err)
	gone, err := db.AddMember("Cat", "Miller")
	require.NoError(t, err)
	require.NoError(t, db.SetActive(KindMember, gone, false))

	results, err := db.SearchMembers("Cat")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, abe, results[0].ID, "active members first, last name ascending")
	assert.Equal(t, zee, results[1].ID)
	assert.Equal(t, gone, results[2].ID, "inactive members sink to the bottom")
}

func TestSoftDeleteIsReversible(t *testing.T) {
	db := tempDB(t)

	id, err := db.AddBook("Hyperion", "Dan Simmons")
	require.NoError(t, err)

	require.NoError(t, db.SetActive(KindBook, id, false))
	require.NoError(t, db.SetActive(KindBook, id, true))

	results, err := db.SearchBooks("Hyperion")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
	assert.Equal(t, "Hyperion", results[0].Title)
	assert.Equal(t, "Dan Simmons", results[0].Author)
	assert.True(t, results[0].Active)
}
