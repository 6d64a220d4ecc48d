package store

import (
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"

	"nixdex/internal/fuzzy"
)

// driverName is go-sqlite3 with the fuzzy_score scalar function installed on
// every connection it opens.
const driverName = "sqlite3_nixdex"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fuzzy_score", fuzzy.Score, true)
		},
	})
}
