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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// NewRole validates name against the top level roles, case-insensitively
func NewRole(name string) (Role, error) {
	switch lower := strings.ToLower(name); lower {
	case ROOT, SNAPSHOT, TARGETS, TIMESTAMP:
		return Role(lower), nil
	default:
		return "", ErrUnknownRole{Value: name}
	}
}

// String returns the canonical (lower case) role name
func (r Role) String() string {
	return string(r)
}

// FromFile load metadata from file
func FromFile(name string) (*Metadata, error) {
	in, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	meta, err := FromBytes(data)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded metadata from file", "name", name, "role", meta.Role)
	return meta, nil
}

// FromBytes parses and validates a signed metadata document. The checks run
// in a fixed order and the first failing one is returned:
// top level fields, required signed fields, role, signatures, targets.
func FromBytes(data []byte) (*Metadata, error) {
	doc, err := DecodeValue(data)
	if err != nil {
		return nil, err
	}
	top, _ := doc.(*Object)
	if err := contains(top, "metadata", FieldSignatures, FieldSigned); err != nil {
		return nil, err
	}
	rawSigned, _ := top.Get(FieldSigned)
	signed, _ := rawSigned.(*Object)
	if err := contains(signed, FieldSigned, FieldType, FieldExpires, FieldVersion); err != nil {
		return nil, err
	}
	// everything that is not modeled ends up in Extra
	signed = signed.Clone()

	typ, err := stringField(signed, FieldSigned, FieldType)
	if err != nil {
		return nil, err
	}
	role, err := NewRole(typ)
	if err != nil {
		return nil, err
	}
	rawSignatures, _ := top.Get(FieldSignatures)
	signatures, err := signaturesFromValue(rawSignatures)
	if err != nil {
		return nil, err
	}
	expires, err := stringField(signed, FieldSigned, FieldExpires)
	if err != nil {
		return nil, err
	}
	version, err := intField(signed, FieldSigned, FieldVersion)
	if err != nil {
		return nil, err
	}
	meta := &Metadata{
		Signatures: signatures,
		Role:       role,
		Expires:    expires,
		Version:    version,
	}
	if role == TARGETS {
		if err := contains(signed, FieldSigned, FieldTargets); err != nil {
			return nil, err
		}
		rawTargets, _ := signed.Get(FieldTargets)
		meta.Targets, err = targetsFromValue(rawTargets)
		if err != nil {
			return nil, err
		}
		signed.Delete(FieldTargets)
	}
	for _, k := range []string{FieldType, FieldExpires, FieldVersion} {
		signed.Delete(k)
	}
	meta.Extra = signed
	return meta, nil
}

// ToBytes serialize metadata to canonical JSON bytes
func (meta *Metadata) ToBytes() ([]byte, error) {
	return EncodeCanonical(meta.encode())
}

// CanonicalSigned returns the canonical bytes of the signed section,
// which is what signatures are computed over
func (meta *Metadata) CanonicalSigned() ([]byte, error) {
	return EncodeCanonical(meta.encodeSigned())
}

func (meta *Metadata) encode() *Object {
	sigs := make([]any, 0, len(meta.Signatures))
	for _, s := range meta.Signatures {
		sigs = append(sigs, s.encode())
	}
	doc := NewObject()
	doc.Set(FieldSignatures, sigs)
	doc.Set(FieldSigned, meta.encodeSigned())
	return doc
}

// encodeSigned builds the signed section. Extra members are merged after the
// modeled ones and never replace them.
func (meta *Metadata) encodeSigned() *Object {
	out := NewObject()
	out.Set(FieldType, string(meta.Role))
	out.Set(FieldExpires, meta.Expires)
	out.Set(FieldVersion, meta.Version)
	if meta.Role == TARGETS {
		out.Set(FieldTargets, meta.Targets.encode())
	}
	for _, k := range meta.Extra.Keys() {
		if out.Has(k) {
			log.Info("Ignoring extra field shadowed by a modeled field", "field", k)
			continue
		}
		v, _ := meta.Extra.Get(k)
		out.Set(k, v)
	}
	return out
}

// Get returns the target stored under filepath
func (t Targets) Get(filepath string) (*Target, bool) {
	for i := range t {
		if t[i].Filepath == filepath {
			return &t[i], true
		}
	}
	return nil, false
}

func (t Targets) encode() *Object {
	out := NewObject()
	for _, target := range t {
		out.Set(target.Filepath, target.encode())
	}
	return out
}

func (t Target) encode() *Object {
	out := NewObject()
	out.Set(FieldLength, t.Length)
	hashes := map[string]any{}
	for alg, digest := range t.Hashes {
		hashes[alg] = digest
	}
	out.Set(FieldHashes, hashes)
	if t.Custom != nil {
		out.Set(FieldCustom, t.Custom)
	}
	return out
}

func (s Signature) encode() *Object {
	out := NewObject()
	out.Set(FieldKeyID, s.KeyID)
	if s.Method != "" {
		out.Set(FieldMethod, s.Method)
	}
	out.Set(FieldSig, s.Sig)
	return out
}

// IsValidKeyID reports whether keyid is exactly 64 hexadecimal characters
func IsValidKeyID(keyid string) bool {
	if len(keyid) != KeyIDLength {
		return false
	}
	_, err := hex.DecodeString(keyid)
	return err == nil
}

func signaturesFromValue(v any) (Signatures, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, ErrType{Msg: fmt.Sprintf("%s must be an array", FieldSignatures)}
	}
	res := make(Signatures, 0, len(arr))
	for _, e := range arr {
		obj, _ := e.(*Object)
		if err := contains(obj, "signature", FieldKeyID, FieldSig); err != nil {
			return nil, err
		}
		keyid, err := stringField(obj, "signature", FieldKeyID)
		if err != nil {
			return nil, err
		}
		if !IsValidKeyID(keyid) {
			return nil, ErrInvalidKeyID{Value: keyid}
		}
		sig, err := stringField(obj, "signature", FieldSig)
		if err != nil {
			return nil, err
		}
		method := ""
		if obj.Has(FieldMethod) {
			if method, err = stringField(obj, "signature", FieldMethod); err != nil {
				return nil, err
			}
		}
		res = append(res, Signature{KeyID: keyid, Method: method, Sig: sig})
	}
	return res, nil
}

func targetsFromValue(v any) (Targets, error) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, ErrType{Msg: fmt.Sprintf("%s must be an object", FieldTargets)}
	}
	res := make(Targets, 0, obj.Len())
	for _, path := range obj.Keys() {
		raw, _ := obj.Get(path)
		entry, _ := raw.(*Object)
		entity := fmt.Sprintf("target %s", path)
		if err := contains(entry, entity, FieldLength, FieldHashes); err != nil {
			return nil, err
		}
		length, err := intField(entry, entity, FieldLength)
		if err != nil {
			return nil, err
		}
		rawHashes, _ := entry.Get(FieldHashes)
		hashObj, ok := rawHashes.(*Object)
		if !ok {
			return nil, ErrType{Msg: fmt.Sprintf("%s %s must be an object", entity, FieldHashes)}
		}
		if hashObj.Len() == 0 {
			return nil, ErrValue{Msg: fmt.Sprintf("%s has no %s", entity, FieldHashes)}
		}
		hashes := Hashes{}
		for _, alg := range hashObj.Keys() {
			digest, err := stringField(hashObj, entity, alg)
			if err != nil {
				return nil, err
			}
			hashes[alg] = digest
		}
		target := Target{Filepath: path, Length: length, Hashes: hashes}
		if rawCustom, ok := entry.Get(FieldCustom); ok && rawCustom != nil {
			custom, ok := rawCustom.(*Object)
			if !ok {
				return nil, ErrType{Msg: fmt.Sprintf("%s %s must be an object", entity, FieldCustom)}
			}
			target.Custom = custom
		}
		res = append(res, target)
	}
	return res, nil
}
