package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/address-pipeline/internal/fetcher"
	"github.com/sells-group/address-pipeline/internal/model"
)

// ReadAddresses reads the address records of an artifact, choosing the decoder
// from the file extension: csv (and txt), json or ndjson, xlsx, or a zip
// holding one csv or txt file.
func ReadAddresses(ctx context.Context, path string) ([]model.AddressRecord, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	switch ext {
	case "csv", "txt", "":
		return readAddressCSV(path)
	case "json", "jsonl", "ndjson":
		return readAddressJSON(ctx, path)
	case "xlsx":
		rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "artifact: read %s", path)
		}
		return model.AddressesFromRows(rows)
	case "zip":
		return readAddressZIP(path)
	default:
		return nil, eris.Errorf("artifact: unsupported address format %q (%s)", ext, path)
	}
}

// ReadGeocodeResults reads a geocode artifact written by the geocoder stage.
func ReadGeocodeResults(path string) ([]model.GeocodeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	results, err := model.ReadGeocodeResults(f)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: parse %s", path)
	}
	return results, nil
}

func readAddressCSV(path string) ([]model.AddressRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	addrs, err := model.ReadAddresses(f)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: parse %s", path)
	}
	return addrs, nil
}

func readAddressJSON(ctx context.Context, path string) ([]model.AddressRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	addrs, err := fetcher.DecodeJSONRecords[model.AddressRecord](ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: parse %s", path)
	}
	return addrs, nil
}

func readAddressZIP(path string) ([]model.AddressRecord, error) {
	tmpDir, err := os.MkdirTemp("", "address-zip-*")
	if err != nil {
		return nil, eris.Wrap(err, "artifact: create extract dir")
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	inner, err := fetcher.ExtractZIPSingle(path, tmpDir, ".csv", ".txt")
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: extract %s", path)
	}
	return readAddressCSV(inner)
}
