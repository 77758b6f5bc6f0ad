package repository

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the storage format of the repository-maintained timestamps.
const TimestampLayout = time.RFC3339Nano

// Record is one row keyed by column name.
// Values use the datastore's native shapes: string, int64, float64, []byte, time.Time or nil.
type Record map[string]any

// String returns the column as a string. TEXT columns may arrive as []byte.
func (r Record) String(col string) (string, error) {
	switch v := r[col].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("column %s: want string, got %T", col, v)
	}
}

// Int64 returns the column as an integer.
func (r Record) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("column %s: want integer, got %T", col, v)
	}
}

// Bool returns an INTEGER 0/1 column as a bool.
func (r Record) Bool(col string) (bool, error) {
	n, err := r.Int64(col)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// Bytes returns a BLOB column. NULL yields nil.
func (r Record) Bytes(col string) ([]byte, error) {
	switch v := r[col].(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("column %s: want bytes, got %T", col, v)
	}
}

// Time returns a timestamp column stored as RFC 3339 text.
func (r Record) Time(col string) (time.Time, error) {
	switch v := r[col].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v.UTC(), nil
	case string, []byte:
		s, _ := r.String(col)
		if s == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(TimestampLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("column %s: %w", col, err)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("column %s: want timestamp, got %T", col, v)
	}
}

// StringMap decodes a JSON object column. Empty or NULL yields nil.
func (r Record) StringMap(col string) (map[string]string, error) {
	s, err := r.String(col)
	if err != nil {
		return nil, err
	}
	if s == "" || s == "{}" || s == "null" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("column %s: %w", col, err)
	}
	return m, nil
}

// EncodeStringMap renders a map as a JSON object column value.
// nil and empty maps both encode as "{}".
func EncodeStringMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeBool renders a bool as INTEGER 0/1.
func EncodeBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// FormatTimestamp renders a repository timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
