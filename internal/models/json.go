package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores loosely structured key/value data in a jsonb column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}
