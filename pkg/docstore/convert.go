package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// toMap flattens a document value into a generic map. Models carry identical json and
// firestore tags, so the JSON encoding names fields the way the database does.
func toMap(data interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("document must encode as an object: %w", err)
	}
	return normalize(out).(map[string]interface{}), nil
}

// normalize turns json.Number into int64 when integral, float64 otherwise.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// mergeInto copies src onto dst; nested maps are merged field by field.
func mergeInto(dst, src map[string]interface{}) {
	for k, v := range src {
		sub, ok := v.(map[string]interface{})
		if !ok {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]interface{})
		if !ok {
			existing = map[string]interface{}{}
			dst[k] = existing
		}
		mergeInto(existing, sub)
	}
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
