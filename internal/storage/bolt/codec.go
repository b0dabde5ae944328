package bolt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
)

const timestampKey = "$ts"

type storedDocument struct {
	Fields map[string]any `json:"fields"`
}

// encodeDocument serialises a document, stamping ServerTimestamp fields
// with now. Timestamps are wrapped so they survive the JSON round trip.
func encodeDocument(data map[string]any, now time.Time) ([]byte, error) {
	fields := make(map[string]any, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case time.Time:
			fields[k] = map[string]string{timestampKey: val.UTC().Format(time.RFC3339Nano)}
		case string, bool, nil, int, int64, float64:
			fields[k] = val
		default:
			if storage.IsServerTimestamp(v) {
				fields[k] = map[string]string{timestampKey: now.UTC().Format(time.RFC3339Nano)}
				continue
			}
			return nil, fmt.Errorf("field %q: unsupported value type %T", k, v)
		}
	}
	return json.Marshal(storedDocument{Fields: fields})
}

func decodeDocument(raw []byte) (map[string]any, error) {
	var doc storedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	data := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		obj, ok := v.(map[string]any)
		if !ok {
			data[k] = v
			continue
		}
		stamp, ok := obj[timestampKey].(string)
		if !ok || len(obj) != 1 {
			data[k] = v
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		data[k] = t
	}
	return data, nil
}

// compareValues orders field values of the same kind; mixed kinds are
// ranked by kind so ordering stays total.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case time.Time:
		return av.Compare(b.(time.Time))
	case string:
		return strings.Compare(av, b.(string))
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}
