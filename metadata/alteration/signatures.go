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
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"

	"github.com/rdimitrov/go-tuf-mitm/metadata"
	"github.com/rdimitrov/go-tuf-mitm/metadata/keystore"
	"github.com/rdimitrov/go-tuf-mitm/metadata/signer"
)

// candidate is one (scheme, index) pair a signature can be made with
type candidate struct {
	scheme signer.Scheme
	index  int
}

// candidates returns every key index times every scheme, index major
func candidates() []candidate {
	res := make([]candidate, 0, keystore.DefaultKeyCount*len(signer.Schemes))
	for i := 1; i <= keystore.DefaultKeyCount; i++ {
		for _, s := range signer.Schemes {
			res = append(res, candidate{scheme: s, index: i})
		}
	}
	return res
}

// addSignatures prepends count signatures made with randomly chosen keys.
// The keyid of each new record is random and unrelated to the key used.
type addSignatures struct {
	name    string
	count   int
	keys    keystore.Store
	rng     *rand.Rand
	entropy io.Reader
}

func newAddSignatures(name string, count int, d deps) addSignatures {
	return addSignatures{
		name:    name,
		count:   count,
		keys:    d.keys,
		rng:     d.rng,
		entropy: d.entropy,
	}
}

func (a addSignatures) Name() string {
	return a.name
}

func (a addSignatures) Check(resp Response) bool {
	return isSignedJSON(resp)
}

func (a addSignatures) Apply(resp Response) (Response, error) {
	if a.keys == nil {
		return nil, ErrNoKeyStore{}
	}
	doc, sigs, err := signedDocument(resp)
	if err != nil {
		return nil, err
	}
	signed, _ := doc.Get(metadata.FieldSigned)
	payload, err := metadata.EncodeCanonical(signed)
	if err != nil {
		return nil, err
	}
	pool := candidates()
	a.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	log := metadata.WithValues(metadata.GetLogger(), "name", a.name)
	for _, c := range pool[:a.count] {
		record, err := a.sign(log, c, payload)
		if err != nil {
			return nil, err
		}
		sigs = append([]any{record}, sigs...)
	}
	res := doc.Clone()
	res.Set(metadata.FieldSignatures, sigs)
	return writeCanonical(resp, res)
}

func (a addSignatures) sign(log metadata.Logger, c candidate, payload []byte) (*metadata.Object, error) {
	km, err := a.keys.Load(c.scheme, c.index)
	if err != nil {
		return nil, fmt.Errorf("loading %s key %d: %w", c.scheme, c.index, err)
	}
	sig, err := signer.Sign(c.scheme, km.Private, payload)
	if err != nil {
		return nil, err
	}
	keyid, err := a.randomKeyID()
	if err != nil {
		return nil, err
	}
	log.Info("Adding signature", "scheme", c.scheme, "index", c.index, "keyid", keyid)
	record := metadata.NewObject()
	record.Set(metadata.FieldMethod, c.scheme.Method())
	record.Set(metadata.FieldKeyID, keyid)
	record.Set(metadata.FieldSig, base64.StdEncoding.EncodeToString(sig))
	return record, nil
}

func (a addSignatures) randomKeyID() (string, error) {
	raw := make([]byte, metadata.KeyIDLength/2)
	if _, err := io.ReadFull(a.entropy, raw); err != nil {
		return "", fmt.Errorf("failed to generate keyid: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// deleteSignatures drops the first count signatures, all of them if
// there are fewer
type deleteSignatures struct {
	name  string
	count int
}

func (d deleteSignatures) Name() string {
	return d.name
}

func (d deleteSignatures) Check(resp Response) bool {
	return isSignedJSON(resp)
}

func (d deleteSignatures) Apply(resp Response) (Response, error) {
	doc, sigs, err := signedDocument(resp)
	if err != nil {
		return nil, err
	}
	n := d.count
	if n > len(sigs) {
		n = len(sigs)
	}
	res := doc.Clone()
	res.Set(metadata.FieldSignatures, append([]any{}, sigs[n:]...))
	return writeCanonical(resp, res)
}

// duplicateSignature prepends a copy of the first signature
type duplicateSignature struct{}

func (duplicateSignature) Name() string {
	return DuplicateSignatures
}

func (duplicateSignature) Check(resp Response) bool {
	return isSignedJSON(resp)
}

func (duplicateSignature) Apply(resp Response) (Response, error) {
	doc, sigs, err := signedDocument(resp)
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, ErrNoSignature{}
	}
	res := doc.Clone()
	res.Set(metadata.FieldSignatures, append([]any{metadata.CloneValue(sigs[0])}, sigs...))
	return writeCanonical(resp, res)
}
