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
	"fmt"

	"github.com/rdimitrov/go-tuf-mitm/metadata"
)

// decodeJSON returns the value tree of a JSON response body
func decodeJSON(resp Response) (any, error) {
	if !isJSON(resp) {
		return nil, metadata.ErrContentType{Expected: MediaTypeJSON, Got: resp.ContentType()}
	}
	return metadata.DecodeValue(resp.Body())
}

// isSignedJSON reports whether the body is a JSON object with both a
// signatures and a signed member. The metadata model is not consulted.
func isSignedJSON(resp Response) bool {
	v, err := decodeJSON(resp)
	if err != nil {
		return false
	}
	doc, ok := v.(*metadata.Object)
	return ok && doc.Has(metadata.FieldSignatures) && doc.Has(metadata.FieldSigned)
}

// signedDocument decodes a signed document and its signature list
func signedDocument(resp Response) (*metadata.Object, []any, error) {
	v, err := decodeJSON(resp)
	if err != nil {
		return nil, nil, err
	}
	doc, ok := v.(*metadata.Object)
	if !ok {
		return nil, nil, ErrNotSigned{Msg: "body is not a JSON object"}
	}
	for _, f := range []string{metadata.FieldSignatures, metadata.FieldSigned} {
		if !doc.Has(f) {
			return nil, nil, ErrNotSigned{Msg: fmt.Sprintf("missing %s", f)}
		}
	}
	raw, _ := doc.Get(metadata.FieldSignatures)
	sigs, ok := raw.([]any)
	if !ok {
		return nil, nil, metadata.ErrType{Msg: fmt.Sprintf("%s must be an array", metadata.FieldSignatures)}
	}
	return doc, sigs, nil
}

// writeCanonical replaces the body of resp with the canonical form of v
func writeCanonical(resp Response, v any) (Response, error) {
	body, err := metadata.EncodeCanonical(v)
	if err != nil {
		return nil, err
	}
	resp.SetBody(body)
	return resp, nil
}
