package store

import "database/sql"

// schemaVersion is bumped whenever the packages table or its auxiliaries change.
const schemaVersion = "1"

// The packages table is the file-format contract read by other tools. Extra
// data goes into side tables so its column set never changes.
const ddl = `
PRAGMA foreign_keys=ON;

CREATE TABLE packages (
    attribute        TEXT PRIMARY KEY NOT NULL,
    store_path       TEXT,
    name             TEXT,
    version          TEXT,
    description      TEXT,
    long_description TEXT
);

CREATE TABLE homepages (
    attribute TEXT PRIMARY KEY NOT NULL REFERENCES packages(attribute) ON DELETE CASCADE,
    url       TEXT NOT NULL
);

CREATE TABLE meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Init creates the schema tables. It fails if they already exist: an index
// is only ever initialized once, on a freshly created file.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}
