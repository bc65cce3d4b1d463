// Package model defines the records that move between pipeline stages.
package model

import "strings"

// AddressColumns is the column order of an address artifact and the addresses table.
var AddressColumns = []string{"address_id", "street_address", "city", "state", "zip"}

// AddressRecord is one row of the upstream address list. It is read-only within
// the pipeline.
type AddressRecord struct {
	AddressID     int64  `csv:"address_id" json:"address_id"`
	StreetAddress string `csv:"street_address" json:"street_address"`
	City          string `csv:"city" json:"city"`
	State         string `csv:"state" json:"state"`
	Zip           string `csv:"zip" json:"zip"`
}

// OneLine formats the address as a single comma-separated line, skipping empty parts.
func (a AddressRecord) OneLine() string {
	parts := []string{a.StreetAddress, a.City, a.State, a.Zip}
	var nonEmpty []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// Values returns the record as table row values. Empty text becomes NULL.
func (a AddressRecord) Values() []any {
	return []any{
		a.AddressID,
		nullable(a.StreetAddress),
		nullable(a.City),
		nullable(a.State),
		nullable(a.Zip),
	}
}

// nullable maps an empty string to nil so both load strategies store NULL for
// empty CSV fields.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
