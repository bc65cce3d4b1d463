package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/address-pipeline/internal/model"
)

func TestSchemasTrackArtifactColumns(t *testing.T) {
	assert.Equal(t, model.AddressColumns, AddressesSchema.ColumnNames())
	assert.Equal(t, model.GeocodeColumns, GeocodedSchema.ColumnNames())
}

func TestOrphanSQL(t *testing.T) {
	assert.Equal(t,
		`SELECT COUNT(*) FROM "geocoded_address_results" g WHERE NOT EXISTS (SELECT 1 FROM "addresses" a WHERE a.address_id = g.address_id)`,
		orphanSQL())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("native")
	assert.NoError(t, err)
	assert.Equal(t, StrategyNative, s)

	_, err = ParseStrategy("pandas")
	assert.Error(t, err)
}

func TestParseIfExists(t *testing.T) {
	p, err := ParseIfExists("")
	assert.NoError(t, err)
	assert.Equal(t, IfExistsReplace, p)

	p, err = ParseIfExists("append")
	assert.NoError(t, err)
	assert.Equal(t, IfExistsAppend, p)

	_, err = ParseIfExists("truncate")
	assert.Error(t, err)
}
