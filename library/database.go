package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Logger receives operational messages from the store. Arguments are
// alternating key/value pairs, slog style. The default logger discards
// everything; wire a real one with WithLogger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger used for store and circulation operations.
func WithLogger(logger Logger) Option {
	return func(d *Database) { d.logger = logger }
}

// Database provides high-level helpers around a SQLite connection. It owns
// the schema and is the single writer for every operation; each mutating
// call runs in its own transaction.
type Database struct {
	db     *sql.DB
	logger Logger

	bookLocks keyedMutex

	addBookStmt   *sql.Stmt
	addMemberStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db, logger: noopLogger{}}
	for _, opt := range opts {
		opt(database)
	}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	database.logger.Debug("database ready", "path", dbPath)
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addMemberStmt != nil {
		d.addMemberStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            is_checked_out BOOLEAN NOT NULL DEFAULT 0,
            active BOOLEAN NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            fines_due INTEGER NOT NULL DEFAULT 0,
            active BOOLEAN NOT NULL DEFAULT 1,
            password_hash TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(id),
            member_id INTEGER NOT NULL REFERENCES members(id),
            checkout_date TEXT NOT NULL,
            due_date TEXT NOT NULL,
            return_date TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_loans_open_book
            ON loans(book_id) WHERE return_date IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_loans_due ON loans(due_date);`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(title,author) VALUES(?,?)`); err != nil {
		return err
	}
	if d.addMemberStmt, err = d.db.Prepare(`INSERT INTO members(first_name,last_name) VALUES(?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

// AddBook inserts a book and returns its generated identifier. New books
// start active and not checked out.
func (d *Database) AddBook(title, author string) (int64, error) {
	res, err := d.addBookStmt.Exec(title, author)
	if err != nil {
		return 0, translateStoreErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, translateStoreErr(err)
	}
	d.logger.Info("book added", "id", id, "title", title)
	return id, nil
}

// AddBookWithID inserts a book under a caller-supplied identifier. Colliding
// with an existing row fails with ErrDuplicateKey.
func (d *Database) AddBookWithID(id int64, title, author string) error {
	_, err := d.db.Exec(`INSERT INTO books(id,title,author) VALUES(?,?,?)`, id, title, author)
	return translateStoreErr(err)
}

// AddMember inserts a member and returns its generated identifier.
func (d *Database) AddMember(firstName, lastName string) (int64, error) {
	res, err := d.addMemberStmt.Exec(firstName, lastName)
	if err != nil {
		return 0, translateStoreErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, translateStoreErr(err)
	}
	d.logger.Info("member added", "id", id, "name", firstName+" "+lastName)
	return id, nil
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

// GetBook fetches a single book, or ErrNotFound.
func (d *Database) GetBook(id int64) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT id,title,author,is_checked_out,active FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.CheckedOut, &b.Active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return &b, nil
}

// GetMember fetches a single member, or ErrNotFound.
func (d *Database) GetMember(id int64) (*Member, error) {
	var m Member
	err := d.db.QueryRow(`SELECT id,first_name,last_name,fines_due,active FROM members WHERE id=?`, id).
		Scan(&m.ID, &m.FirstName, &m.LastName, &m.FinesDue, &m.Active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return &m, nil
}

// GetLoan fetches a single loan, or ErrNotFound.
func (d *Database) GetLoan(id int64) (*Loan, error) {
	row := d.db.QueryRow(`SELECT id,book_id,member_id,checkout_date,due_date,return_date FROM loans WHERE id=?`, id)
	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return loan, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*Loan, error) {
	var (
		l        Loan
		checkout string
		due      string
		returned sql.NullString
	)
	if err := row.Scan(&l.ID, &l.BookID, &l.MemberID, &checkout, &due, &returned); err != nil {
		return nil, err
	}
	var err error
	if l.CheckoutDate, err = parseDate(checkout); err != nil {
		return nil, fmt.Errorf("bad checkout_date %q: %w", checkout, err)
	}
	if l.DueDate, err = parseDate(due); err != nil {
		return nil, fmt.Errorf("bad due_date %q: %w", due, err)
	}
	if returned.Valid {
		t, err := parseDate(returned.String)
		if err != nil {
			return nil, fmt.Errorf("bad return_date %q: %w", returned.String, err)
		}
		l.ReturnDate = &t
	}
	return &l, nil
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// Kind selects which entity table an operation targets.
type Kind string

const (
	KindBook   Kind = "book"
	KindMember Kind = "member"
)

// updatableFields whitelists the mutable column set per entity kind. Loans
// are deliberately absent: a loan is only ever mutated by ReturnLoan.
var updatableFields = map[Kind]map[string]bool{
	KindBook:   {"title": true, "author": true, "is_checked_out": true, "active": true},
	KindMember: {"first_name": true, "last_name": true, "fines_due": true, "active": true},
}

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindBook:
		return "books", nil
	case KindMember:
		return "members", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// UpdateField sets one whitelisted field on a book or member and returns the
// affected-row count. Zero affected rows means the identifier does not exist;
// that is a signal for the caller, not an error. Booleans are stored as 0/1
// and integer values must be non-negative.
func (d *Database) UpdateField(kind Kind, id int64, field string, value any) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	if !updatableFields[kind][field] {
		return 0, fmt.Errorf("field %q is not updatable on %s", field, kind)
	}

	switch v := value.(type) {
	case bool:
		if v {
			value = 1
		} else {
			value = 0
		}
	case int:
		if v < 0 {
			return 0, fmt.Errorf("%s=%d: %w", field, v, ErrInvalidAmount)
		}
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("%s=%d: %w", field, v, ErrInvalidAmount)
		}
	case string:
	default:
		return 0, fmt.Errorf("unsupported value type %T for field %q", value, field)
	}

	// table and field come from fixed whitelists, never from the caller's raw input.
	res, err := d.db.Exec(fmt.Sprintf(`UPDATE %s SET %s=? WHERE id=?`, table, field), value, id)
	if err != nil {
		return 0, translateStoreErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, translateStoreErr(err)
	}
	d.logger.Debug("field updated", "kind", string(kind), "id", id, "field", field, "affected", affected)
	return affected, nil
}
