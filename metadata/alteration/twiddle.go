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

package alteration

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/rdimitrov/go-tuf-mitm/metadata"
)

const (
	stringSuffix = "1337 h4x"
	sentinel     = "wat"
	poisonKey    = "password"
	poisonValue  = "hunter2"
)

// noOp never applies by itself, it is what the engine falls back to
type noOp struct{}

func (noOp) Name() string {
	return NoOp
}

func (noOp) Check(Response) bool {
	return false
}

func (noOp) Apply(resp Response) (Response, error) {
	return resp, nil
}

// twiddleJSON changes exactly one thing in a JSON body
type twiddleJSON struct{}

func (twiddleJSON) Name() string {
	return TwiddleJSON
}

func (twiddleJSON) Check(resp Response) bool {
	return isJSON(resp)
}

func (twiddleJSON) Apply(resp Response) (Response, error) {
	v, err := decodeJSON(resp)
	if err != nil {
		return nil, err
	}
	return writeCanonical(resp, twiddle(v))
}

// twiddle walks down a single path, always the first member or element,
// and changes the value at its end. The input is left untouched.
func twiddle(v any) any {
	switch t := v.(type) {
	case *metadata.Object:
		if t.Len() == 0 {
			res := metadata.NewObject()
			res.Set(poisonKey, poisonValue)
			return res
		}
		res := t.Clone()
		first := res.Keys()[0]
		val, _ := res.Get(first)
		res.Set(first, twiddle(val))
		return res
	case []any:
		if len(t) == 0 {
			return []any{sentinel}
		}
		res := make([]any, len(t))
		copy(res, t)
		res[0] = twiddle(res[0])
		return res
	case bool:
		return !t
	case string:
		return t + stringSuffix
	case json.Number:
		return increment(t)
	default:
		return sentinel
	}
}

// increment adds one, integers stay integers and floats stay floats
func increment(n json.Number) any {
	lit := string(n)
	if !strings.ContainsAny(lit, ".eE") {
		i, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return sentinel
		}
		return json.Number(i.Add(i, big.NewInt(1)).String())
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return sentinel
	}
	res := strconv.FormatFloat(f+1, 'g', -1, 64)
	if !strings.ContainsAny(res, ".eE") {
		res += ".0"
	}
	return json.Number(res)
}
