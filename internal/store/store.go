package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Index is the read side of a built index.
type Index interface {
	// Exact returns the installable package with the given attribute, or nil.
	Exact(attribute string) (*Package, error)
	// Ranked streams installable packages ordered by fuzzy score against
	// query, best first, until visit returns false.
	Ranked(query string, visit func(Package) bool) error
	// Meta returns a build metadata value by key, or "" if not set.
	Meta(key string) (string, error)
	// Count returns the number of installable packages.
	Count() (int, error)
	// Close closes the underlying database.
	Close() error
}

// Writer builds a fresh index file.
type Writer struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Reader is a read-only handle on a built index. It is safe for concurrent use.
// Only the packages table is required; homepages and meta are optional so
// indexes written by other tools stay readable.
type Reader struct {
	db        *sql.DB
	homepages bool
	meta      bool
}

var _ Index = (*Reader)(nil)

// Remove deletes the index file at path. A missing file is not an error.
func Remove(path string) error {
	for _, p := range []string{path, path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: remove %s: %w", ErrIndexCreation, p, err)
		}
	}
	return nil
}

// Create makes a new, empty index at path. It fails if anything already
// exists there; callers remove stale indexes first.
func Create(path string, log *zap.Logger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create index directory: %w", ErrIndexCreation, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexCreation, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexCreation, err)
	}

	db, err := sql.Open(driverName, dsn(path, url.Values{
		"mode":          {"rw"},
		"_txlock":       {"exclusive"},
		"_foreign_keys": {"on"},
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrIndexCreation, err)
	}
	db.SetMaxOpenConns(1)

	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", ErrIndexCreation, err)
	}
	return &Writer{db: db, path: path, log: log}, nil
}

// Build inserts every package and the given metadata in a single
// transaction. Any failed row aborts the whole build and nothing is
// committed.
func (w *Writer) Build(pkgs []Package, meta map[string]string) error {
	start := time.Now()

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrRowInsert, err)
	}
	defer tx.Rollback()

	pkgStmt, err := tx.Prepare(`
		INSERT INTO packages (attribute, store_path, name, version, description, long_description)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare package insert: %w", ErrRowInsert, err)
	}
	defer pkgStmt.Close()

	homeStmt, err := tx.Prepare("INSERT INTO homepages (attribute, url) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("%w: prepare homepage insert: %w", ErrRowInsert, err)
	}
	defer homeStmt.Close()

	for _, p := range pkgs {
		_, err := pkgStmt.Exec(p.Attribute, p.StorePath, p.Name, p.Version, p.Description, p.LongDescription)
		if err != nil {
			return fmt.Errorf("%w: package %q: %w", ErrRowInsert, p.Attribute, err)
		}
		if p.Homepage != nil {
			if _, err := homeStmt.Exec(p.Attribute, *p.Homepage); err != nil {
				return fmt.Errorf("%w: homepage for %q: %w", ErrRowInsert, p.Attribute, err)
			}
		}
	}

	for k, v := range meta {
		if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("%w: meta %q: %w", ErrRowInsert, k, err)
		}
	}
	if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", MetaSchemaVersion, schemaVersion); err != nil {
		return fmt.Errorf("%w: schema version: %w", ErrRowInsert, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrRowInsert, err)
	}

	w.log.Info("wrote index",
		zap.String("path", w.path),
		zap.Int("packages", len(pkgs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Close closes the underlying database.
func (w *Writer) Close() error {
	return w.db.Close()
}

// OpenReadOnly opens an existing index for queries.
func OpenReadOnly(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	db, err := sql.Open(driverName, dsn(path, url.Values{
		"mode":        {"ro"},
		"_query_only": {"true"},
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrQuery, err)
	}

	tables, err := listTables(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: read schema of %s: %w", ErrQuery, path, err)
	}
	if !tables["packages"] {
		db.Close()
		return nil, fmt.Errorf("%w: %s has no packages table", ErrQuery, path)
	}
	return &Reader{db: db, homepages: tables["homepages"], meta: tables["meta"]}, nil
}

func listTables(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables[name] = true
	}
	return tables, rows.Err()
}

// selectPackages returns the SELECT ... FROM prefix shared by Exact and
// Ranked. extra is appended to the column list.
func (r *Reader) selectPackages(extra string) string {
	cols := `p.attribute, p.store_path, p.name, p.version, p.description, p.long_description`
	if !r.homepages {
		return "SELECT " + cols + ", NULL AS url" + extra + " FROM packages p "
	}
	return "SELECT " + cols + ", h.url" + extra +
		" FROM packages p LEFT JOIN homepages h ON h.attribute = p.attribute "
}

func (r *Reader) Exact(attribute string) (*Package, error) {
	rows, err := r.db.Query(r.selectPackages("")+"WHERE p.attribute = ?", attribute)
	if err != nil {
		return nil, fmt.Errorf("%w: exact %q: %w", ErrQuery, attribute, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: exact %q: %w", ErrQuery, attribute, err)
		}
		return nil, nil
	}

	var rec record
	if err := rows.Scan(rec.dest()...); err != nil {
		return nil, fmt.Errorf("%w: exact %q: %w", ErrRowDecode, attribute, err)
	}

	p := rec.pkg()
	// Rows without an output path are bootstrap-only attributes, never results.
	if !p.Installable() {
		return nil, nil
	}
	return &p, nil
}

func (r *Reader) Ranked(query string, visit func(Package) bool) error {
	rows, err := r.db.Query(
		r.selectPackages(", fuzzy_score(COALESCE(p.name, ''), ?) AS score")+
			"WHERE p.store_path IS NOT NULL ORDER BY score DESC, p.attribute ASC",
		query,
	)
	if err != nil {
		return fmt.Errorf("%w: rank %q: %w", ErrQuery, query, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec record
		var score int64
		if err := rows.Scan(append(rec.dest(), &score)...); err != nil {
			return fmt.Errorf("%w: rank %q: %w", ErrRowDecode, query, err)
		}
		p := rec.pkg()
		p.Score = &score
		if !visit(p) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: rank %q: %w", ErrQuery, query, err)
	}
	return nil
}

func (r *Reader) Meta(key string) (string, error) {
	if !r.meta {
		return "", nil
	}
	var value string
	err := r.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: meta %q: %w", ErrQuery, key, err)
	}
	return value, nil
}

func (r *Reader) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM packages WHERE store_path IS NOT NULL").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrQuery, err)
	}
	return n, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// MetaInt parses an integer metadata value, returning 0 when unset.
func MetaInt(idx Index, key string) (int, error) {
	v, err := idx.Meta(key)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: meta %q is not a number: %w", ErrRowDecode, key, err)
	}
	return n, nil
}

func dsn(path string, params url.Values) string {
	u := url.URL{Scheme: "file", Path: path, RawQuery: params.Encode()}
	if abs, err := filepath.Abs(path); err == nil {
		u.Path = filepath.ToSlash(abs)
	}
	return u.String()
}
