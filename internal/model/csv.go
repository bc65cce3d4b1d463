package model

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// ReadAddresses decodes a headerless address CSV (Census batch input format).
// A leading header row is tolerated and skipped.
func ReadAddresses(r io.Reader) ([]AddressRecord, error) {
	return decodeAddresses(newCSVReader(r))
}

// AddressesFromRows decodes address records from already-split rows, e.g. the
// cells of a spreadsheet. Short rows are padded with empty fields.
func AddressesFromRows(rows [][]string) ([]AddressRecord, error) {
	return decodeAddresses(&rowReader{rows: rows, width: len(AddressColumns)})
}

// ReadGeocodeResults decodes a headerless geocode artifact.
func ReadGeocodeResults(r io.Reader) ([]GeocodeResult, error) {
	dec, err := csvutil.NewDecoder(newCSVReader(r), GeocodeColumns...)
	if err != nil {
		return nil, eris.Wrap(err, "model: geocode decoder")
	}

	var out []GeocodeResult
	for line := 1; ; line++ {
		var res GeocodeResult
		err := dec.Decode(&res)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "model: decode geocode row %d", line)
		}
		out = append(out, res)
	}
}

// WriteAddresses encodes records as a headerless CSV in AddressColumns order.
func WriteAddresses(w io.Writer, records []AddressRecord) error {
	return writeCSV(w, records, "address")
}

// WriteGeocodeResults encodes results as a headerless CSV in GeocodeColumns order.
func WriteGeocodeResults(w io.Writer, results []GeocodeResult) error {
	return writeCSV(w, results, "geocode")
}

func writeCSV[T any](w io.Writer, rows []T, kind string) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "model: encode %s row %d", kind, i+1)
		}
	}

	cw.Flush()
	return eris.Wrapf(cw.Error(), "model: flush %s csv", kind)
}

func decodeAddresses(r csvutil.Reader) ([]AddressRecord, error) {
	dec, err := csvutil.NewDecoder(r, AddressColumns...)
	if err != nil {
		return nil, eris.Wrap(err, "model: address decoder")
	}

	var out []AddressRecord
	for line := 1; ; line++ {
		var rec AddressRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			if line == 1 && IsHeaderRow(dec.Record()) {
				continue
			}
			return nil, eris.Wrapf(err, "model: decode address row %d", line)
		}
		out = append(out, rec)
	}
}

// newCSVReader keeps fields byte-for-byte so the in-process loader stores the
// same text as a native COPY of the same file.
func newCSVReader(r io.Reader) *csv.Reader {
	return csv.NewReader(r)
}

// IsHeaderRow reports whether a row looks like column names rather than data:
// its first field is not an integer id.
func IsHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	return err != nil
}

// rowReader adapts a slice of rows to csvutil.Reader.
type rowReader struct {
	rows  [][]string
	width int
	next  int
}

func (r *rowReader) Read() ([]string, error) {
	for r.next < len(r.rows) {
		row := r.rows[r.next]
		r.next++
		if isBlankRow(row) {
			continue
		}
		out := make([]string, r.width)
		for i := 0; i < r.width && i < len(row); i++ {
			out[i] = strings.TrimSpace(row[i])
		}
		return out, nil
	}
	return nil, io.EOF
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
