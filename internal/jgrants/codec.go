// internal/jgrants/codec.go
package jgrants

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// json writes non-ASCII and HTML characters unescaped. Upstream objects are
// decoded into *Object and keep their own order; plain maps are sorted.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

const indent = "  "

// Render serializes v as indented JSON text. jsoniter writes the compact
// form; nested values lose their depth under its own indenter.
func Render(v interface{}) (string, error) {
	compact, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := stdjson.Indent(&out, compact, "", indent); err != nil {
		return "", err
	}
	return out.String(), nil
}

// decodeDocument parses a whole upstream body, keeping key order.
func decodeDocument(body []byte) (interface{}, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response body is not valid JSON")
	}
	return decodeValue(gjson.ParseBytes(body)), nil
}

// resultCount reports the length of the top-level result array, or -1 when
// the body has none.
func resultCount(body []byte) int64 {
	r := gjson.GetBytes(body, "result")
	if !r.IsArray() {
		return -1
	}
	return gjson.GetBytes(body, "result.#").Int()
}

// decodeFirstRecord returns the first element of result, or nil when the
// array is absent, null or empty. Further elements are ignored.
func decodeFirstRecord(body []byte) (*Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("response body is not a JSON object")
	}

	result := root.Get("result")
	if !result.Exists() || result.Type == gjson.Null {
		return nil, nil
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("result: expected array, got %s", result.Type)
	}

	first := result.Get("0")
	if !first.Exists() {
		return nil, nil
	}
	if !first.IsObject() {
		return nil, fmt.Errorf("result[0]: expected object, got %s", first.Type)
	}
	return decodeRecord(decodeValue(first).(*Object))
}
