package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Metadata is a map of key-value pairs that can be attached to a resource
type Metadata map[string]string

// Value implements driver.Valuer so metadata round-trips through a jsonb column
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.Newf("unsupported metadata column type %T", src)
	}
}
