package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_OneRowPerInput(t *testing.T) {
	addrs := []AddressInput{
		{ID: "1", Street: "1500 Market St", City: "Philadelphia", State: "PA", ZipCode: "19102"},
		{ID: "2", Street: "2 Elm St", City: "Denver", State: "CO"},
		{ID: "3", Street: "123 Nowhere St", City: "Faketown", State: "XX", ZipCode: "00000"},
	}
	raw := []Match{
		{ID: "3", Status: StatusNoMatch, InputAddress: "123 Nowhere St, Faketown, XX, 00000"},
		{ID: "1", Status: StatusMatch, MatchType: "Exact", LonLat: "-75.1,39.9"},
		{ID: "99", Status: StatusMatch},
	}

	got := reconcile(addrs, raw)
	require.Len(t, got, 3)

	assert.Equal(t, "1", got[0].ID)
	assert.True(t, got[0].Matched())

	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, StatusNoMatch, got[1].Status)
	assert.True(t, got[1].Synthesized)
	assert.Equal(t, "2 Elm St, Denver, CO", got[1].InputAddress)

	assert.Equal(t, "3", got[2].ID)
	assert.False(t, got[2].Synthesized)
}

func TestReconcile_MultipleCandidates(t *testing.T) {
	addrs := []AddressInput{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	raw := []Match{
		{ID: "1", Status: StatusTie},
		{ID: "1", Status: StatusMatch, MatchType: "Non_Exact", MatchedAddress: "non-exact"},
		{ID: "1", Status: StatusMatch, MatchType: "Exact", MatchedAddress: "exact"},
		{ID: "2", Status: StatusMatch, MatchType: "Exact", MatchedAddress: "first"},
		{ID: "2", Status: StatusMatch, MatchType: "Exact", MatchedAddress: "second"},
		{ID: "3", Status: StatusNoMatch},
		{ID: "3", Status: StatusTie},
	}

	got := reconcile(addrs, raw)
	assert.Equal(t, "exact", got[0].MatchedAddress)
	assert.Equal(t, "first", got[1].MatchedAddress)
	assert.Equal(t, StatusTie, got[2].Status)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Match{
		{Status: StatusMatch},
		{Status: StatusMatch},
		{Status: StatusNoMatch},
		{Status: StatusNoMatch, Synthesized: true},
		{Status: StatusTie},
	})
	assert.Equal(t, Stats{Total: 5, Matched: 2, NoMatch: 2, Tie: 1, Synthesized: 1}, s)
}

func TestFormatOneLine(t *testing.T) {
	assert.Equal(t, "123 Main St, Springfield, IL, 62701",
		formatOneLine(AddressInput{Street: "123 Main St", City: "Springfield", State: "IL", ZipCode: "62701"}))
	assert.Equal(t, "Denver, CO, 80202",
		formatOneLine(AddressInput{City: "Denver", State: "CO", ZipCode: "80202"}))
}
