package model

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Wire names, one table per entity. Parsing and serialization both go through
// these so the JSON field names never drift from the Go field names.
var (
	geometryWire = struct {
		Type, Coordinates string
	}{
		Type:        "type",
		Coordinates: "coordinates",
	}

	featureWire = struct {
		ID, Type, Geometry, Properties string
	}{
		ID:         "_id",
		Type:       "type",
		Geometry:   "geometry",
		Properties: "properties",
	}

	collectionWire = struct {
		Type, Features string
	}{
		Type:     "type",
		Features: "features",
	}
)

type field struct {
	key   string
	value interface{}
}

// marshalObject writes the fields as a JSON object, keeping their order.
func marshalObject(fields ...field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeObject splits a JSON object into its raw members.
func decodeObject(data []byte, what string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, errors.Wrapf(ErrInvalidDocument, "%s must be a JSON object", what)
	}
	return raw, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
