package loader

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // register driver

	"github.com/sells-group/address-pipeline/internal/db"
)

// sqliteMaxVariables is SQLite's default SQLITE_MAX_VARIABLE_NUMBER.
const sqliteMaxVariables = 32766

// OpenSQLite opens a SQLite database. The pool is pinned to one connection so
// ":memory:" databases stay visible across calls.
func OpenSQLite(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: exec PRAGMA busy_timeout")
	}
	return conn, nil
}

// SQLiteWriter is a TableWriter backed by database/sql and modernc.org/sqlite.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter creates a SQLiteWriter.
func NewSQLiteWriter(conn *sql.DB) *SQLiteWriter {
	return &SQLiteWriter{db: conn}
}

// Begin starts a transaction. SQLite DDL is transactional, so drops and
// creates roll back with the inserts.
func (w *SQLiteWriter) Begin(ctx context.Context) (TableTx, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	return &sqliteTx{tx: tx}, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

// Exists reports whether the table is in sqlite_master.
func (t *sqliteTx) Exists(ctx context.Context, table string) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: lookup %s", table)
	}
	return n > 0, nil
}

func (t *sqliteTx) Drop(ctx context.Context, tbl db.Table) error {
	_, err := t.tx.ExecContext(ctx, tbl.DropSQL())
	return eris.Wrapf(err, "sqlite: drop %s", tbl.Name)
}

func (t *sqliteTx) Create(ctx context.Context, tbl db.Table) error {
	_, err := t.tx.ExecContext(ctx, tbl.CreateSQL(db.SQLite))
	return eris.Wrapf(err, "sqlite: create %s", tbl.Name)
}

// Insert writes rows with multi-row INSERTs. The chunk size is clamped so a
// statement never exceeds SQLite's variable limit.
func (t *sqliteTx) Insert(ctx context.Context, tbl db.Table, rows [][]any, chunkSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	cols := len(tbl.Columns)
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	chunkSize = min(chunkSize, sqliteMaxVariables/cols)

	var total int64
	for i := 0; i < len(rows); i += chunkSize {
		end := min(i+chunkSize, len(rows))
		args := make([]any, 0, (end-i)*cols)
		for _, r := range rows[i:end] {
			if len(r) != cols {
				return 0, eris.Errorf("sqlite: row %d has %d values, want %d", i, len(r), cols)
			}
			args = append(args, r...)
		}

		res, err := t.tx.ExecContext(ctx, tbl.InsertSQL(db.SQLite, end-i), args...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s (batch %d-%d)", tbl.Name, i, end)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		total += n
	}
	return total, nil
}

func (t *sqliteTx) Commit(context.Context) error {
	return eris.Wrap(t.tx.Commit(), "sqlite: commit")
}

func (t *sqliteTx) Rollback(context.Context) error { return t.tx.Rollback() }
