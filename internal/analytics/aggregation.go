// Package analytics turns server-side issue aggregations into chart data.
package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one aggregated record as the server sends it, e.g.
// {"dimension": "urgent", "segment": "bug", "count": 3}.
type Row map[string]any

// Bucket holds the rows aggregated under one dimension value.
type Bucket struct {
	Key  string
	Rows []Row
}

// Aggregation is the server's dimension-keyed aggregation, kept in the order
// the keys arrived.
type Aggregation []Bucket

// UnmarshalJSON decodes a JSON object of arrays while preserving key order.
// null decodes to an empty aggregation.
func (a *Aggregation) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading aggregation: %w", err)
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("aggregation must be a JSON object, got %v", tok)
	}

	var out Aggregation
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading aggregation key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("aggregation key must be a string, got %v", keyTok)
		}
		var rows []Row
		if err := dec.Decode(&rows); err != nil {
			return fmt.Errorf("decoding aggregation rows for %q: %w", key, err)
		}
		out = append(out, Bucket{Key: key, Rows: rows})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("closing aggregation: %w", err)
	}
	*a = out
	return nil
}

// MarshalJSON encodes the aggregation back to an ordered JSON object.
func (a Aggregation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(b.Key)
		if err != nil {
			return nil, err
		}
		rows := b.Rows
		if rows == nil {
			rows = []Row{}
		}
		v, err := json.Marshal(rows)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// number reads a numeric field from a row. Missing or non-numeric values are
// zero.
func (r Row) number(key string) float64 {
	switch v := r[key].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// text reads a string-ish field from a row. ok is false for missing or null
// values.
func (r Row) text(key string) (string, bool) {
	switch v := r[key].(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
