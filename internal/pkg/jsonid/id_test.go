package jsonid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ID
	}{
		{"string", `{"id":"abc"}`, "abc"},
		{"integer", `{"id":4711}`, "4711"},
		{"null", `{"id":null}`, ""},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				ID ID `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &v))
			assert.Equal(t, tt.want, v.ID)
		})
	}
}

func TestID_UnmarshalJSON_RejectsObjects(t *testing.T) {
	var v struct {
		ID ID `json:"id"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"id":{"a":1}}`), &v))
}
