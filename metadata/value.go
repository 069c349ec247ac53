// Copyright 2023 VMware, Inc.
//
// This product is licensed to you under the BSD-2 license (the "License").
// You may not use this product except in compliance with the BSD-2 License.
// This product may include a number of subcomponents with separate copyright
// notices and license terms. Your use of these subcomponents is subject to
// the terms and conditions of the subcomponent's license, as noted in the
// LICENSE file.
//
// SPDX-License-Identifier: BSD-2-Clause

package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Object is a JSON object which remembers the order its keys were first set in.
// Decoded documents keep their key order, which is what "the first key" of a
// mapping refers to. Canonical encoding ignores that order.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object
func NewObject() *Object {
	return &Object{values: map[string]any{}}
}

// Len returns the number of members, a nil Object has none
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the member names in insertion order
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Get returns the value stored under key
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is a member
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. A new key is appended, an existing one keeps
// its position.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = map[string]any{}
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key, if present
func (o *Object) Delete(key string) {
	if !o.Has(key) {
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

// Clone returns a shallow copy
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	res := &Object{
		keys:   make([]string, len(o.keys)),
		values: make(map[string]any, len(o.values)),
	}
	copy(res.keys, o.keys)
	for k, v := range o.values {
		res.values[k] = v
	}
	return res
}

// MarshalJSON writes the members in insertion order
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeValue parses a single JSON value. The result is built from
// nil, bool, json.Number, string, []any and *Object. Numbers are normalized
// to their canonical literal so that decoding what EncodeCanonical produced
// yields an identical value.
func DecodeValue(data []byte) (any, error) {
	// encoding/json would replace invalid bytes with U+FFFD
	if !utf8.Valid(data) {
		return nil, ErrEncoding{Msg: "invalid UTF-8"}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrEncoding{Msg: "unexpected data after top-level value"}
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, ErrEncoding{Msg: fmt.Sprintf("invalid JSON: %s", err)}
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, ErrEncoding{Msg: fmt.Sprintf("invalid JSON: %s", err)}
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, ErrEncoding{Msg: fmt.Sprintf("invalid object key %v", keyTok)}
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			// consume the closing delimiter
			if _, err := dec.Token(); err != nil {
				return nil, ErrEncoding{Msg: fmt.Sprintf("invalid JSON: %s", err)}
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, ErrEncoding{Msg: fmt.Sprintf("invalid JSON: %s", err)}
			}
			return arr, nil
		default:
			return nil, ErrEncoding{Msg: fmt.Sprintf("unexpected delimiter %s", t)}
		}
	case json.Number:
		lit, err := canonicalNumber(string(t))
		if err != nil {
			return nil, err
		}
		return json.Number(lit), nil
	default:
		// nil, bool and string
		return t, nil
	}
}

// CloneValue deep copies a value tree produced by DecodeValue
func CloneValue(v any) any {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return t
		}
		res := t.Clone()
		for k, val := range res.values {
			res.values[k] = CloneValue(val)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for i, val := range t {
			res[i] = CloneValue(val)
		}
		return res
	default:
		return v
	}
}
