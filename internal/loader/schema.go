package loader

import "github.com/sells-group/address-pipeline/internal/db"

// Target table names.
const (
	AddressesTable = "addresses"
	GeocodedTable  = "geocoded_address_results"
)

// AddressesSchema is the addresses table.
var AddressesSchema = db.Table{
	Name: AddressesTable,
	Columns: []db.Column{
		{Name: "address_id", Kind: db.Integer},
		{Name: "street_address", Kind: db.Text},
		{Name: "city", Kind: db.Text},
		{Name: "state", Kind: db.Text},
		{Name: "zip", Kind: db.Text},
	},
}

// GeocodedSchema is the geocoded_address_results table.
var GeocodedSchema = db.Table{
	Name: GeocodedTable,
	Columns: []db.Column{
		{Name: "address_id", Kind: db.Integer},
		{Name: "input_address", Kind: db.Text},
		{Name: "match_status", Kind: db.Text},
		{Name: "match_type", Kind: db.Text},
		{Name: "matched_address", Kind: db.Text},
		{Name: "lon_lat", Kind: db.Text},
		{Name: "tiger_line_id", Kind: db.Integer},
		{Name: "tiger_line_side", Kind: db.Text},
	},
}

// orphanSQL counts geocode rows that reference no loaded address.
func orphanSQL() string {
	return "SELECT COUNT(*) FROM " + db.Sanitize(GeocodedTable) + " g WHERE NOT EXISTS (SELECT 1 FROM " +
		db.Sanitize(AddressesTable) + " a WHERE a.address_id = g.address_id)"
}
