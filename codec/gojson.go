package codec

import gojson "github.com/goccy/go-json"

// GoJSON is a JSON codec backed by github.com/goccy/go-json. It is the
// default snapshot codec; its output is readable by JSON.
type GoJSON struct{}

var _ Codec = GoJSON{}

// Marshal encodes the value to JSON.
func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns the name recorded in snapshot headers ("go-json").
func (GoJSON) Name() string { return "go-json" }
