package jgrants

import (
	"bytes"
	stdjson "encoding/json"

	"github.com/tidwall/gjson"
)

// Object is a JSON object that keeps its keys in document order, so
// pass-through fields are written back the way the API sent them.
type Object struct {
	keys   []string
	values map[string]interface{}
}

func NewObject() *Object {
	return &Object{values: map[string]interface{}{}}
}

// Set stores v under key. An existing key keeps its position.
func (o *Object) Set(key string, v interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

func (o *Object) Len() int {
	return len(o.keys)
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		value, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(value)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// decodeValue converts a parsed gjson value into plain Go values: *Object
// for objects, []interface{} for arrays and json.Number for numbers, which
// keeps the upstream digits verbatim.
func decodeValue(r gjson.Result) interface{} {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return stdjson.Number(r.Raw)
	case gjson.String:
		return r.Str
	}

	if r.IsObject() {
		obj := NewObject()
		r.ForEach(func(key, value gjson.Result) bool {
			obj.Set(key.String(), decodeValue(value))
			return true
		})
		return obj
	}

	items := []interface{}{}
	r.ForEach(func(_, value gjson.Result) bool {
		items = append(items, decodeValue(value))
		return true
	})
	return items
}
