package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// tsKey marks an encoded timestamp: {"$ts": "2024-01-02T03:04:05.123Z"}.
const tsKey = "$ts"

// EncodeFields serializes fields for backends that persist JSON text.
// Timestamps survive the round trip as time.Time.
func EncodeFields(f Fields) ([]byte, error) {
	out := make(map[string]any, len(f))
	for k, v := range f {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = ev
	}
	return json.Marshal(out)
}

// DecodeFields is the inverse of EncodeFields.
func DecodeFields(b []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	out := make(Fields, len(raw))
	for k, v := range raw {
		dv, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = dv
	}
	return out, nil
}

func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x, nil
	case int:
		return int64(x), nil
	case time.Time:
		return map[string]string{tsKey: x.UTC().Format(time.RFC3339Nano)}, nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return map[string]string{tsKey: x.UTC().Format(time.RFC3339Nano)}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func decodeValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case map[string]any:
		s, ok := x[tsKey].(string)
		if !ok || len(x) != 1 {
			return nil, fmt.Errorf("unsupported nested object")
		}
		return time.Parse(time.RFC3339Nano, s)
	default:
		return x, nil
	}
}
