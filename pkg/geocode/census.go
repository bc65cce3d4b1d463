package geocode

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-pipeline/internal/resilience"
)

// batchGeocodeCensus posts one address file to the batch endpoint and parses
// the raw response rows.
func (g *geocoder) batchGeocodeCensus(ctx context.Context, addrs []AddressInput) ([]Match, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: census batch rate limit")
	}

	addressFile, err := encodeAddressFile(addrs)
	if err != nil {
		return nil, err
	}

	// A file body cannot ride on a GET, so the batch API takes a multipart POST.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("benchmark", g.benchmark); err != nil {
		return nil, eris.Wrap(err, "geocode: census batch write benchmark")
	}
	if g.vintage != "" {
		if err := writer.WriteField("vintage", g.vintage); err != nil {
			return nil, eris.Wrap(err, "geocode: census batch write vintage")
		}
	}

	part, err := writer.CreateFormFile("addressFile", "addresses.csv")
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census batch create form file")
	}
	if _, err := part.Write(addressFile); err != nil {
		return nil, eris.Wrap(err, "geocode: census batch write csv")
	}
	if err := writer.Close(); err != nil {
		return nil, eris.Wrap(err, "geocode: census batch close writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.batchURL, &buf)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census batch build request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	zap.L().Debug("geocode: census batch request",
		zap.String("url", g.batchURL),
		zap.Int("addresses", len(addrs)),
	)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census batch request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Wrap(&resilience.StatusError{
			StatusCode: resp.StatusCode,
			URL:        g.batchURL,
			Body:       strings.TrimSpace(string(snippet)),
		}, "geocode: census batch")
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		return parseBatchJSON(resp.Body)
	}
	return parseBatchCSV(resp.Body)
}

// encodeAddressFile renders addrs in the Census input format:
// id,street,city,state,zip with no header.
func encodeAddressFile(addrs []AddressInput) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, a := range addrs {
		if err := w.Write([]string{a.ID, a.Street, a.City, a.State, a.ZipCode}); err != nil {
			return nil, eris.Wrap(err, "geocode: encode address file")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "geocode: encode address file")
	}
	return buf.Bytes(), nil
}

// parseBatchCSV parses the Census batch CSV response.
// Format: "id","input address","Match/No_Match/Tie","Exact/Non_Exact","matched address","lon,lat","tigerlineid","side"[,geographies...]
func parseBatchCSV(r io.Reader) ([]Match, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []Match
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "geocode: census batch parse csv")
		}
		if len(fields) < 3 {
			zap.L().Debug("geocode: skipping short census row", zap.Strings("fields", fields))
			continue
		}

		m := Match{
			ID:           strings.TrimSpace(fields[0]),
			InputAddress: strings.TrimSpace(fields[1]),
			Status:       normalizeStatus(fields[2]),
		}
		if len(fields) > 3 {
			m.MatchType = strings.TrimSpace(fields[3])
		}
		if len(fields) > 4 {
			m.MatchedAddress = strings.TrimSpace(fields[4])
		}
		if len(fields) > 5 {
			m.LonLat = strings.TrimSpace(fields[5])
		}
		if len(fields) > 6 {
			m.TigerLineID = strings.TrimSpace(fields[6])
		}
		if len(fields) > 7 {
			m.Side = strings.TrimSpace(fields[7])
		}
		out = append(out, m)
	}
}

// batchJSONRow is one element of a JSON batch response. Keys follow the
// geocoded_address_results column names.
type batchJSONRow struct {
	AddressID      flexString `json:"address_id"`
	InputAddress   string     `json:"input_address"`
	MatchStatus    string     `json:"match_status"`
	MatchType      string     `json:"match_type"`
	MatchedAddress string     `json:"matched_address"`
	LonLat         string     `json:"lon_lat"`
	TigerLineID    flexString `json:"tiger_line_id"`
	TigerLineSide  string     `json:"tiger_line_side"`
}

// flexString accepts a JSON string, number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func parseBatchJSON(r io.Reader) ([]Match, error) {
	var rows []batchJSONRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, eris.Wrap(err, "geocode: census batch parse json")
	}

	out := make([]Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, Match{
			ID:             strings.TrimSpace(string(row.AddressID)),
			InputAddress:   row.InputAddress,
			Status:         normalizeStatus(row.MatchStatus),
			MatchType:      row.MatchType,
			MatchedAddress: row.MatchedAddress,
			LonLat:         row.LonLat,
			TigerLineID:    strings.TrimSpace(string(row.TigerLineID)),
			Side:           row.TigerLineSide,
		})
	}
	return out, nil
}

// normalizeStatus maps Census spellings ("No_Match", "No Match", "match") onto
// the status constants.
func normalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(strings.ReplaceAll(s, " ", "_")) {
	case "match":
		return StatusMatch
	case "no_match", "nomatch":
		return StatusNoMatch
	case "tie":
		return StatusTie
	default:
		return s
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
