package loader

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-pipeline/internal/artifact"
	"github.com/sells-group/address-pipeline/internal/db"
)

const defaultChunkSize = 1000

// TableWriter opens the transactions the in-process strategy writes through.
type TableWriter interface {
	Begin(ctx context.Context) (TableTx, error)
}

// TableTx holds the table operations of one load. Nothing is visible to other
// connections until Commit.
type TableTx interface {
	Exists(ctx context.Context, table string) (bool, error)
	Drop(ctx context.Context, t db.Table) error
	Create(ctx context.Context, t db.Table) error
	Insert(ctx context.Context, t db.Table, rows [][]any, chunkSize int) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Options tunes the in-process strategy.
type Options struct {
	ChunkSize int
	IfExists  IfExists
	// Index writes a leading "index" column holding each row's 0-based ordinal.
	Index bool
}

// InProcess parses artifacts in Go and inserts the rows through a TableWriter.
type InProcess struct {
	w    TableWriter
	opts Options
}

// NewInProcess creates an in-process loader.
func NewInProcess(w TableWriter, opts Options) *InProcess {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.IfExists == "" {
		opts.IfExists = IfExistsReplace
	}
	return &InProcess{w: w, opts: opts}
}

// Load reads both artifacts and writes them to addresses and
// geocoded_address_results in one transaction. A failure on either table
// leaves both as they were.
func (l *InProcess) Load(ctx context.Context, in Inputs) (*Summary, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	log := zap.L().With(zap.String("component", "loader.in_process"))

	addrs, err := artifact.ReadAddresses(ctx, in.AddressesPath)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read addresses")
	}
	results, err := artifact.ReadGeocodeResults(in.GeocodedPath)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read geocode results")
	}

	addrRows := make([][]any, len(addrs))
	known := make(map[int64]bool, len(addrs))
	for i, a := range addrs {
		addrRows[i] = a.Values()
		known[a.AddressID] = true
	}

	resultRows := make([][]any, len(results))
	var orphans int64
	for i, r := range results {
		resultRows[i] = r.Values()
		if !known[r.AddressID] {
			orphans++
		}
	}

	tx, err := l.w.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "loader: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sum := &Summary{Strategy: StrategyInProcess}
	for _, job := range []struct {
		schema db.Table
		rows   [][]any
	}{
		{AddressesSchema, addrRows},
		{GeocodedSchema, resultRows},
	} {
		n, err := l.loadTable(ctx, tx, job.schema, job.rows)
		if err != nil {
			return nil, err
		}
		log.Info("table loaded", zap.String("table", job.schema.Name), zap.Int64("rows", n))
		sum.Tables = append(sum.Tables, TableCount{Table: job.schema.Name, Rows: n})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "loader: commit")
	}

	// With append the table may hold earlier ids, so only this batch is checked.
	sum.OrphanResults = orphans
	if orphans > 0 {
		log.Warn("geocode results reference unknown addresses", zap.Int64("orphans", orphans))
	}
	sum.Duration = time.Since(start)
	return sum, nil
}

func (l *InProcess) loadTable(ctx context.Context, tx TableTx, schema db.Table, rows [][]any) (int64, error) {
	if l.opts.Index {
		schema = schema.WithIndex()
		indexed := make([][]any, len(rows))
		for i, r := range rows {
			indexed[i] = append([]any{int64(i)}, r...)
		}
		rows = indexed
	}

	exists, err := tx.Exists(ctx, schema.Name)
	if err != nil {
		return 0, eris.Wrapf(err, "loader: check %s", schema.Name)
	}

	switch {
	case exists && l.opts.IfExists == IfExistsFail:
		return 0, eris.Wrapf(ErrTableExists, "loader: %s", schema.Name)
	case exists && l.opts.IfExists == IfExistsReplace:
		if err := tx.Drop(ctx, schema); err != nil {
			return 0, eris.Wrapf(err, "loader: drop %s", schema.Name)
		}
		exists = false
	}
	if !exists {
		if err := tx.Create(ctx, schema); err != nil {
			return 0, eris.Wrapf(err, "loader: create %s", schema.Name)
		}
	}

	n, err := tx.Insert(ctx, schema, rows, l.opts.ChunkSize)
	if err != nil {
		return n, eris.Wrapf(err, "loader: insert %s", schema.Name)
	}
	return n, nil
}
