// Package loader loads address and geocode artifacts into database tables.
// Two strategies implement Loader: InProcess parses artifacts in Go and
// inserts rows through a TableWriter; Native streams the CSV files through
// Postgres COPY ... FROM STDIN.
package loader

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Strategy names a load strategy.
type Strategy string

// Supported strategies.
const (
	StrategyInProcess Strategy = "in_process"
	StrategyNative    Strategy = "native"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyInProcess, StrategyNative:
		return Strategy(s), nil
	default:
		return "", eris.Errorf("loader: unknown strategy %q (want in_process or native)", s)
	}
}

// IfExists controls what happens when a target table already exists.
type IfExists string

// IfExists policies.
const (
	IfExistsReplace IfExists = "replace"
	IfExistsAppend  IfExists = "append"
	IfExistsFail    IfExists = "fail"
)

// ParseIfExists validates an IfExists policy. Empty means replace.
func ParseIfExists(s string) (IfExists, error) {
	switch IfExists(s) {
	case "":
		return IfExistsReplace, nil
	case IfExistsReplace, IfExistsAppend, IfExistsFail:
		return IfExists(s), nil
	default:
		return "", eris.Errorf("loader: unknown if_exists %q (want replace, append, or fail)", s)
	}
}

// ErrUnsupported is returned when a strategy cannot load the given inputs.
var ErrUnsupported = eris.New("loader: unsupported input")

// ErrTableExists is returned under IfExistsFail when a target table exists.
var ErrTableExists = eris.New("loader: table already exists")

// Inputs names the artifacts to load.
type Inputs struct {
	AddressesPath string
	GeocodedPath  string
}

func (in Inputs) validate() error {
	if in.AddressesPath == "" {
		return eris.New("loader: addresses path is required")
	}
	if in.GeocodedPath == "" {
		return eris.New("loader: geocoded path is required")
	}
	return nil
}

// TableCount is the number of rows written to one table.
type TableCount struct {
	Table string
	Rows  int64
}

// Summary reports the outcome of a load.
type Summary struct {
	Strategy Strategy
	Tables   []TableCount
	// OrphanResults counts geocode rows whose address_id is not in addresses.
	OrphanResults int64
	Duration      time.Duration
}

// Rows returns the rows written to table, or -1 if it was not loaded.
func (s *Summary) Rows(table string) int64 {
	for _, tc := range s.Tables {
		if tc.Table == table {
			return tc.Rows
		}
	}
	return -1
}

// Loader loads both artifacts into their tables.
type Loader interface {
	Load(ctx context.Context, in Inputs) (*Summary, error)
}
