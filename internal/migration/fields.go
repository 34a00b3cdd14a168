package migration

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// stringField safely extracts a string field, returning "" if absent.
// Numbers and bools are rendered as text.
func stringField(obj map[string]interface{}, field string) string {
	switch v := obj[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// hasField reports whether a field is present with a non-empty value.
func hasField(obj map[string]interface{}, field string) bool {
	v, ok := obj[field]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// intField safely extracts an int field from a map. Numeric strings
// are parsed.
func intField(obj map[string]interface{}, field string) (int, bool) {
	v, ok := obj[field]
	if !ok || v == nil {
		return 0, false
	}
	if s, ok := v.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	switch v.(type) {
	case float64, int, json.Number:
		return toInt(v), true
	}
	return 0, false
}

// boolField safely extracts a bool field; "true"/"1" strings count.
func boolField(obj map[string]interface{}, field string) bool {
	switch v := obj[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case float64:
		return v != 0
	}
	return false
}

// toInt converts various numeric types to int.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

// decodePayload decodes a wire payload into a record.
func decodePayload(p models.Payload, dest interface{}) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

// fieldNames lists the keys of a delta for log lines.
func fieldNames(p models.Payload) string {
	keys := p.Keys()
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
