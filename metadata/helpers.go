// Copyright 2022-2023 VMware, Inc.
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
	"encoding/json"
	"fmt"
	"strings"
)

// contains verifies that obj is an object holding every one of fields.
// A value which is not an object holds no fields.
func contains(obj *Object, entity string, fields ...string) error {
	for _, f := range fields {
		if !obj.Has(f) {
			return ErrMissingField{Entity: entity, Field: f}
		}
	}
	return nil
}

func stringField(obj *Object, entity, field string) (string, error) {
	v, _ := obj.Get(field)
	s, ok := v.(string)
	if !ok {
		return "", ErrType{Msg: fmt.Sprintf("%s %s must be a string, got %s", entity, field, kindOf(v))}
	}
	return s, nil
}

func intField(obj *Object, entity, field string) (int64, error) {
	v, _ := obj.Get(field)
	n, ok := v.(json.Number)
	if !ok || strings.ContainsAny(string(n), ".eE") {
		return 0, ErrType{Msg: fmt.Sprintf("%s %s must be an integer, got %s", entity, field, kindOf(v))}
	}
	i, err := n.Int64()
	if err != nil {
		return 0, ErrValue{Msg: fmt.Sprintf("%s %s is out of range: %s", entity, field, n)}
	}
	return i, nil
}

// kindOf names the JSON kind of a decoded value
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case *Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
