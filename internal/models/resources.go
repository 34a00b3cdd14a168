package models

import "encoding/json"

// Payload is a JSON-shaped create or update body using the target's wire
// field names.
type Payload map[string]interface{}

// ToPayload converts any JSON-encodable record into its wire shape.
// Numbers come back as float64, lists as []interface{}.
func ToPayload(v interface{}) (Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Normalize re-encodes the payload so that values compare equal to a
// payload decoded from the API.
func (p Payload) Normalize() Payload {
	if p == nil {
		return nil
	}
	n, err := ToPayload(map[string]interface{}(p))
	if err != nil {
		return p
	}
	return n
}

// Compact returns a copy without nil-valued fields.
func (p Payload) Compact() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// Keys returns the field names present in the payload.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

// StringMap converts a decoded JSON object into a string map, dropping
// non-string values.
func StringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		if sm, ok := v.(map[string]string); ok {
			return sm
		}
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
