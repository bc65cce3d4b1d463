package fetcher

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"unicode"

	"github.com/rotisserie/eris"
)

// DecodeJSONRecords decodes a list of records that is either a JSON array
// ([{...},{...}]) or a stream of objects, one per line (NDJSON). Empty input
// yields no records.
func DecodeJSONRecords[T any](ctx context.Context, r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "json: read input")
	}

	dec := json.NewDecoder(br)
	switch first {
	case '[':
		if _, err := dec.Token(); err != nil {
			return nil, eris.Wrap(err, "json: read opening token")
		}
		out, err := decodeEach[T](ctx, dec)
		if err != nil {
			return nil, err
		}
		if _, err := dec.Token(); err != nil {
			return nil, eris.Wrap(err, "json: read closing token")
		}
		return out, nil
	case '{':
		return decodeEach[T](ctx, dec)
	default:
		return nil, eris.Errorf("json: expected '[' or '{', got %q", first)
	}
}

// decodeEach decodes values until the enclosing array or the input ends.
func decodeEach[T any](ctx context.Context, dec *json.Decoder) ([]T, error) {
	var out []T
	for i := 0; dec.More(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "json: context cancelled")
		}
		var item T
		if err := dec.Decode(&item); err != nil {
			return nil, eris.Wrapf(err, "json: decode record %d", i+1)
		}
		out = append(out, item)
	}
	return out, nil
}

// firstNonSpace peeks at the first significant byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
