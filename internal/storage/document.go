package storage

import (
	"fmt"
	"time"
)

// Document is a raw stored document merged with its identifier.
// Timestamp fields hold time.Time values.
type Document struct {
	ID   string
	Data map[string]any
}

// String returns a string field. Absent fields report ok=false; present
// fields of another type return an error.
func (d Document) String(field string) (value string, ok bool, err error) {
	raw, present := d.Data[field]
	if !present || raw == nil {
		return "", false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return "", true, fmt.Errorf("field %q: want string, got %T", field, raw)
	}
	return s, true, nil
}

// Time returns a timestamp field, with the same conventions as String.
func (d Document) Time(field string) (value time.Time, ok bool, err error) {
	raw, present := d.Data[field]
	if !present || raw == nil {
		return time.Time{}, false, nil
	}
	t, isTime := raw.(time.Time)
	if !isTime {
		return time.Time{}, true, fmt.Errorf("field %q: want timestamp, got %T", field, raw)
	}
	return t, true, nil
}
