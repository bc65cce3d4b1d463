package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAddress struct {
	ID     int    `json:"address_id"`
	Street string `json:"street_address"`
}

func TestDecodeJSONRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []testAddress
	}{
		{
			name:  "array",
			input: `[{"address_id":1,"street_address":"1500 Market St"},{"address_id":2,"street_address":"2 Elm St"}]`,
			want:  []testAddress{{1, "1500 Market St"}, {2, "2 Elm St"}},
		},
		{
			name:  "ndjson",
			input: "{\"address_id\":1,\"street_address\":\"1500 Market St\"}\n{\"address_id\":2,\"street_address\":\"2 Elm St\"}\n",
			want:  []testAddress{{1, "1500 Market St"}, {2, "2 Elm St"}},
		},
		{
			name:  "leading whitespace",
			input: "\n  [{\"address_id\":3}]",
			want:  []testAddress{{ID: 3}},
		},
		{name: "empty array", input: "[]", want: nil},
		{name: "empty input", input: "", want: nil},
		{name: "blank input", input: " \n\t", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJSONRecords[testAddress](context.Background(), strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSONRecords_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"scalar", `42`, "expected '[' or '{'"},
		{"bad element", `[{"address_id":1},{"address_id":"x"}]`, "decode record 2"},
		{"bad line", "{\"address_id\":1}\n{oops}\n", "decode record 2"},
		{"unterminated array", `[{"address_id":1}`, "read closing token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSONRecords[testAddress](context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeJSONRecords_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DecodeJSONRecords[testAddress](ctx, strings.NewReader(`[{"address_id":1}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}
