// internal/pkg/jsonid/id.go
package jsonid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier that arrives either as a JSON string or a JSON number.
// Numbers keep their literal text, so 42 and "42" decode to the same ID.
type ID string

// UnmarshalJSON accepts strings, numbers and null
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id text
func (id ID) String() string {
	return string(id)
}
