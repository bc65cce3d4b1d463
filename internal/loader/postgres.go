package loader

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/address-pipeline/internal/db"
)

// PostgresWriter is a TableWriter backed by a pgx pool. Inserts use COPY.
type PostgresWriter struct {
	pool db.Pool
}

// NewPostgresWriter creates a PostgresWriter.
func NewPostgresWriter(pool db.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

// Begin starts a transaction on the pool.
func (w *PostgresWriter) Begin(ctx context.Context) (TableTx, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "loader: begin postgres tx")
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

// Exists reports whether table resolves on the search path.
func (t *postgresTx) Exists(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", db.Sanitize(table)).Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "loader: lookup %s", table)
	}
	return exists, nil
}

func (t *postgresTx) Drop(ctx context.Context, tbl db.Table) error {
	_, err := t.tx.Exec(ctx, tbl.DropSQL())
	return err
}

func (t *postgresTx) Create(ctx context.Context, tbl db.Table) error {
	_, err := t.tx.Exec(ctx, tbl.CreateSQL(db.Postgres))
	return err
}

// Insert copies rows into the table in chunks over the transaction.
func (t *postgresTx) Insert(ctx context.Context, tbl db.Table, rows [][]any, chunkSize int) (int64, error) {
	return db.CopyFrom(ctx, t.tx, tbl.Name, tbl.ColumnNames(), rows, chunkSize)
}

func (t *postgresTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *postgresTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
