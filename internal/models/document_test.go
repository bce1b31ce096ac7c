package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFileURLs(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "  ", want: nil},
		{name: "single url", raw: "https://cdn/a.pdf", want: []string{"https://cdn/a.pdf"}},
		{name: "json array", raw: `["https://cdn/a.pdf"," https://cdn/b.png ",""]`, want: []string{"https://cdn/a.pdf", "https://cdn/b.png"}},
		{name: "malformed array kept verbatim", raw: `[https://cdn/a.pdf`, want: []string{"[https://cdn/a.pdf"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeFileURLs(tc.raw))
		})
	}
}

func TestDocumentMarshalJSONExposesURLs(t *testing.T) {
	doc := Document{ID: "doc-1", FileURL: `["u1","u2"]`, OwnerType: OwnerVehicle}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []interface{}{"u1", "u2"}, decoded["file_urls"])
	assert.NotContains(t, decoded, "file_url")
	assert.Equal(t, "VEHICLE", decoded["owner_type"])
}
