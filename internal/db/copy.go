package db

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBatchSize = 1000

// CopyFrom bulk-inserts rows into a table using the PostgreSQL COPY protocol,
// in chunks of batchSize rows (0 = 1,000).
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	log := zap.L().With(
		zap.String("component", "db.copy"),
		zap.String("table", table),
		zap.Int("total_rows", len(rows)),
	)

	var total int64
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))

		n, err := pool.CopyFrom(ctx, identifier(table), columns, pgx.CopyFromRows(rows[i:end]))
		if err != nil {
			return total, eris.Wrapf(err, "db: COPY INTO %s (batch %d-%d)", table, i, end)
		}
		total += n

		log.Debug("batch loaded",
			zap.Int("batch_start", i),
			zap.Int("batch_end", end),
			zap.Int64("batch_rows", n),
		)
	}

	return total, nil
}

// CopyCSV streams headerless CSV from r into table with
// COPY ... FROM STDIN WITH (FORMAT csv). Empty fields load as NULL.
func CopyCSV(ctx context.Context, conn *pgconn.PgConn, table string, columns []string, r io.Reader) (int64, error) {
	tag, err := conn.CopyFrom(ctx, r, CopyCSVSQL(table, columns))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY %s FROM STDIN", table)
	}
	return tag.RowsAffected(), nil
}

// CopyCSVSQL renders the COPY statement used by CopyCSV. FORCE_NULL makes a
// quoted empty field load as NULL too, the same as an unquoted one.
func CopyCSVSQL(table string, columns []string) string {
	cols := quoteAndJoin(columns)
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv, FORCE_NULL (%s))", sanitizeTable(table), cols, cols)
}

func identifier(table string) pgx.Identifier {
	schema, name, ok := splitTable(table)
	if ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}
