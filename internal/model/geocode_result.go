package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// GeocodeColumns is the column order of a geocode artifact and the
// geocoded_address_results table.
var GeocodeColumns = []string{
	"address_id",
	"input_address",
	"match_status",
	"match_type",
	"matched_address",
	"lon_lat",
	"tiger_line_id",
	"tiger_line_side",
}

// Census match statuses.
const (
	StatusMatch   = "Match"
	StatusNoMatch = "No_Match"
	StatusTie     = "Tie"
)

// Census match types.
const (
	MatchTypeExact    = "Exact"
	MatchTypeNonExact = "Non_Exact"
)

// GeocodeResult is the geocoder's verdict for one AddressRecord.
type GeocodeResult struct {
	AddressID      int64  `csv:"address_id" json:"address_id"`
	InputAddress   string `csv:"input_address" json:"input_address"`
	MatchStatus    string `csv:"match_status" json:"match_status"`
	MatchType      string `csv:"match_type" json:"match_type"`
	MatchedAddress string `csv:"matched_address" json:"matched_address"`
	LonLat         string `csv:"lon_lat" json:"lon_lat"`
	TigerLineID    *int64 `csv:"tiger_line_id" json:"tiger_line_id"`
	TigerLineSide  string `csv:"tiger_line_side" json:"tiger_line_side"`
}

// Matched reports whether the geocoder found a single match.
func (g GeocodeResult) Matched() bool {
	return strings.EqualFold(g.MatchStatus, StatusMatch)
}

// Coordinates parses LonLat ("longitude,latitude").
func (g GeocodeResult) Coordinates() (lon, lat float64, err error) {
	parts := strings.SplitN(g.LonLat, ",", 2)
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("model: invalid lon_lat %q", g.LonLat)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "model: parse longitude")
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "model: parse latitude")
	}
	return lon, lat, nil
}

// Values returns the result as table row values. Empty text becomes NULL.
func (g GeocodeResult) Values() []any {
	var tlid any
	if g.TigerLineID != nil {
		tlid = *g.TigerLineID
	}
	return []any{
		g.AddressID,
		nullable(g.InputAddress),
		nullable(g.MatchStatus),
		nullable(g.MatchType),
		nullable(g.MatchedAddress),
		nullable(g.LonLat),
		tlid,
		nullable(g.TigerLineSide),
	}
}
