package models

import (
	"database/sql/driver"
	"fmt"

	json "github.com/goccy/go-json"
)

// JSONStringArray stores a []string as a JSON-encoded TEXT column.
type JSONStringArray []string

// Value implements driver.Valuer.
func (a JSONStringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *JSONStringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONStringArray: %T", src)
	}
	if len(data) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(a))
}
