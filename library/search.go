package library

import (
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
)

var dialect = goqu.Dialect("sqlite3")

// searchPredicate matches rows whose name fields contain the query as a
// substring, plus an exact identifier match when the query parses as an
// integer. When it does not parse, no identifier filter is applied at all.
func searchPredicate(query string, fields ...string) exp.Expression {
	like := "%" + query + "%"
	ors := make([]exp.Expression, 0, len(fields)+1)
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		ors = append(ors, goqu.C("id").Eq(id))
	}
	for _, f := range fields {
		ors = append(ors, goqu.C(f).Like(like))
	}
	return goqu.Or(ors...)
}

// SearchBooks finds books by exact identifier or by substring match on title
// or author. Available books rank before checked-out ones, ties broken by
// ascending identifier. A blank query returns no results.
func (d *Database) SearchBooks(query string) ([]*Book, error) {
	if strings.TrimSpace(query) == "" {
		return []*Book{}, nil
	}

	sqlStr, args, err := dialect.From("books").
		Select("id", "title", "author", "is_checked_out", "active").
		Where(searchPredicate(query, "title", "author")).
		Order(goqu.C("is_checked_out").Asc(), goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, translateStoreErr(err)
	}

	rows, err := d.db.Query(sqlStr, args...)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.CheckedOut, &b.Active); err != nil {
			return nil, translateStoreErr(err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreErr(err)
	}
	return books, nil
}

// SearchMembers finds members by exact identifier or by substring match on
// first or last name. Active members rank first, ties broken by last name.
func (d *Database) SearchMembers(query string) ([]*Member, error) {
	if strings.TrimSpace(query) == "" {
		return []*Member{}, nil
	}

	sqlStr, args, err := dialect.From("members").
		Select("id", "first_name", "last_name", "fines_due", "active").
		Where(searchPredicate(query, "first_name", "last_name")).
		Order(goqu.C("active").Desc(), goqu.C("last_name").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, translateStoreErr(err)
	}

	rows, err := d.db.Query(sqlStr, args...)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.FinesDue, &m.Active); err != nil {
			return nil, translateStoreErr(err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreErr(err)
	}
	return members, nil
}
