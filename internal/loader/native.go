package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-pipeline/internal/db"
	"github.com/sells-group/address-pipeline/internal/model"
)

// copyFunc streams CSV from r into table over the transaction's connection.
type copyFunc func(ctx context.Context, tx pgx.Tx, table string, columns []string, r io.Reader) (int64, error)

// Native loads headerless CSV artifacts with Postgres COPY ... FROM STDIN
// inside a single transaction. Tables are always dropped and recreated.
type Native struct {
	pool    db.Pool
	copyCSV copyFunc
}

// NewNative creates a native loader.
func NewNative(pool db.Pool) *Native {
	return &Native{pool: pool, copyCSV: copyCSVTx}
}

func copyCSVTx(ctx context.Context, tx pgx.Tx, table string, columns []string, r io.Reader) (int64, error) {
	return db.CopyCSV(ctx, tx.Conn().PgConn(), table, columns, r)
}

// Load replaces both tables with the artifact contents. Non-CSV artifacts
// return ErrUnsupported.
func (l *Native) Load(ctx context.Context, in Inputs) (*Summary, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	for _, p := range []string{in.AddressesPath, in.GeocodedPath} {
		if !isCSVPath(p) {
			return nil, eris.Wrapf(ErrUnsupported, "loader: native strategy needs csv, got %s", filepath.Base(p))
		}
	}
	start := time.Now()
	log := zap.L().With(zap.String("component", "loader.native"))

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "loader: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sum := &Summary{Strategy: StrategyNative}
	for _, job := range []struct {
		schema db.Table
		path   string
	}{
		{AddressesSchema, in.AddressesPath},
		{GeocodedSchema, in.GeocodedPath},
	} {
		n, err := l.loadTable(ctx, tx, job.schema, job.path)
		if err != nil {
			return nil, err
		}
		log.Info("table loaded", zap.String("table", job.schema.Name), zap.Int64("rows", n))
		sum.Tables = append(sum.Tables, TableCount{Table: job.schema.Name, Rows: n})
	}

	if err := tx.QueryRow(ctx, orphanSQL()).Scan(&sum.OrphanResults); err != nil {
		return nil, eris.Wrap(err, "loader: count orphan results")
	}
	if sum.OrphanResults > 0 {
		log.Warn("geocode results reference unknown addresses", zap.Int64("orphans", sum.OrphanResults))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "loader: commit")
	}
	sum.Duration = time.Since(start)
	return sum, nil
}

func (l *Native) loadTable(ctx context.Context, tx pgx.Tx, schema db.Table, path string) (int64, error) {
	if _, err := tx.Exec(ctx, schema.DropSQL()); err != nil {
		return 0, eris.Wrapf(err, "loader: drop %s", schema.Name)
	}
	if _, err := tx.Exec(ctx, schema.CreateSQL(db.Postgres)); err != nil {
		return 0, eris.Wrapf(err, "loader: create %s", schema.Name)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	br := bufio.NewReaderSize(f, 64*1024)
	if err := skipHeader(br); err != nil {
		return 0, eris.Wrapf(err, "loader: read %s", path)
	}

	n, err := l.copyCSV(ctx, tx, schema.Name, schema.ColumnNames(), br)
	if err != nil {
		return 0, eris.Wrapf(err, "loader: copy %s", schema.Name)
	}
	return n, nil
}

// skipHeader discards the first line when it is a header row, matching the
// in-process CSV reader.
func skipHeader(br *bufio.Reader) error {
	head, err := br.Peek(br.Size())
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i+1]
	}
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}

	record, err := csv.NewReader(bytes.NewReader(line)).Read()
	if err != nil || !model.IsHeaderRow(record) {
		return nil
	}
	_, err = br.Discard(len(line))
	return err
}

func isCSVPath(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".csv", ".txt":
		return true
	default:
		return false
	}
}
