// Command seedlibrary wipes and repopulates a library database with sample
// books, members, and a few loans. Useful for demos and manual testing.
package main

import (
	"fmt"
	"os"
	"time"

	"library-circulation/library"
)

var sampleBooks = [][2]string{
	{"1984", "George Orwell"},
	{"Animal Farm", "George Orwell"},
	{"The Odyssey", "Homer"},
	{"The Art of War", "Sun Tzu"},
	{"The Fellowship of the Ring", "J.R.R. Tolkien"},
	{"The Two Towers", "J.R.R. Tolkien"},
	{"The Return of the King", "J.R.R. Tolkien"},
	{"Romeo and Juliet", "William Shakespeare"},
	{"The Three Musketeers", "Alexandre Dumas"},
}

var sampleMembers = [][2]string{
	{"Alice", "Archer"},
	{"Bob", "Baker"},
	{"Charlie", "Cooper"},
	{"Diana", "Drake"},
}

func main() {
	dbPath := "library.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	// Clean up any existing database files.
	for _, suffix := range []string{"", "-shm", "-wal"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: could not remove %s%s: %v\n", dbPath, suffix, err)
		}
	}

	db, err := library.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var bookIDs []int64
	for _, b := range sampleBooks {
		id, err := db.AddBook(b[0], b[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding book %q: %v\n", b[0], err)
			os.Exit(1)
		}
		bookIDs = append(bookIDs, id)
	}

	var memberIDs []int64
	for _, m := range sampleMembers {
		id, err := db.AddMember(m[0], m[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding member %s %s: %v\n", m[0], m[1], err)
			os.Exit(1)
		}
		memberIDs = append(memberIDs, id)
	}

	// Open a few loans, one of them already overdue.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	loans := []struct {
		book, member int
		checkedOut   time.Time
		due          time.Time
	}{
		{0, 0, today, today.AddDate(0, 0, 14)},
		{2, 1, today.AddDate(0, 0, -21), today.AddDate(0, 0, -7)},
		{4, 2, today.AddDate(0, 0, -3), today.AddDate(0, 0, 11)},
	}
	for _, l := range loans {
		if _, err := db.Checkout(bookIDs[l.book], memberIDs[l.member], l.checkedOut, l.due); err != nil {
			fmt.Fprintf(os.Stderr, "Error opening loan: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Seeded %s: %d books, %d members, %d loans\n",
		dbPath, len(bookIDs), len(memberIDs), len(loans))
}
