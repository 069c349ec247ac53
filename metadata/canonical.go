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
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// EncodeCanonical serializes v deterministically: object keys sorted by
// their bytes, no insignificant whitespace, minimal number literals. The
// same logical value always yields the same bytes.
func EncodeCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return encodeString(buf, t)
	case json.Number:
		lit, err := canonicalNumber(string(t))
		if err != nil {
			return err
		}
		buf.WriteString(lit)
	case int:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(t, 10))
	case float32:
		lit, err := formatFloat(float64(t))
		if err != nil {
			return err
		}
		buf.WriteString(lit)
	case float64:
		lit, err := formatFloat(t)
		if err != nil {
			return err
		}
		buf.WriteString(lit)
	case *Object:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		keys := t.Keys()
		sort.Strings(keys)
		return encodeMembers(buf, keys, func(k string) any { return t.values[k] })
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return encodeMembers(buf, keys, func(k string) any { return t[k] })
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return encodeMembers(buf, keys, func(k string) any { return t[k] })
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Marshaler:
		// anything that knows its JSON form is re-decoded into a value tree
		data, err := t.MarshalJSON()
		if err != nil {
			return ErrEncoding{Msg: err.Error()}
		}
		val, err := DecodeValue(data)
		if err != nil {
			return err
		}
		return encodeCanonical(buf, val)
	default:
		return ErrEncoding{Msg: fmt.Sprintf("cannot canonically encode value of type %s", reflect.TypeOf(v))}
	}
	return nil
}

func encodeMembers(buf *bytes.Buffer, sortedKeys []string, get func(string) any) error {
	buf.WriteByte('{')
	for i, k := range sortedKeys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeCanonical(buf, get(k)); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return ErrEncoding{Msg: "invalid UTF-8"}
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return ErrEncoding{Msg: err.Error()}
	}
	// Encode terminates each value with a newline
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	if !bytes.Contains(out, []byte(`\u202`)) {
		buf.Write(out)
		return nil
	}
	// U+2028 and U+2029 are written as raw UTF-8 like every other rune
	for i := 0; i < len(out); i++ {
		if out[i] != '\\' {
			buf.WriteByte(out[i])
			continue
		}
		switch string(out[i:min(i+6, len(out))]) {
		case `\u2028`:
			buf.WriteRune('\u2028')
			i += 5
			continue
		case `\u2029`:
			buf.WriteRune('\u2029')
			i += 5
			continue
		}
		// any other escape is copied as a pair so an escaped backslash is
		// never read as the start of a new escape
		buf.Write(out[i : i+2])
		i++
	}
	return nil
}

// canonicalNumber rewrites a JSON number literal in its minimal form.
// Integer literals keep arbitrary precision, anything with a fraction or
// an exponent is treated as a float64.
func canonicalNumber(lit string) (string, error) {
	if !strings.ContainsAny(lit, ".eE") {
		n, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return "", ErrEncoding{Msg: fmt.Sprintf("invalid number %q", lit)}
		}
		return n.String(), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return "", ErrEncoding{Msg: fmt.Sprintf("invalid number %q", lit)}
	}
	return formatFloat(f)
}

// formatFloat follows encoding/json: shortest representation that parses
// back to the same float64, exponent notation only outside [1e-6, 1e21).
// Integral values keep a ".0" so they are still read back as floats.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", ErrEncoding{Msg: fmt.Sprintf("unsupported number %v", f)}
	}
	if f == 0 {
		// drop the sign of negative zero
		f = 0
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
		return s, nil
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}
