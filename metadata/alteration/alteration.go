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

// Package alteration corrupts captured metadata responses on purpose, to
// probe how clients verifying signed metadata cope with them.
//
// Every alteration is one entry of a closed registration table. An Engine
// filters the table by an allow-list and by applicability to a response,
// then picks one candidate at random, falling back to the no-op alteration.
package alteration

import (
	"io"
	"math/rand"

	"github.com/rdimitrov/go-tuf-mitm/metadata/keystore"
)

// Alteration is a named mutation of a response body
type Alteration interface {
	// Name identifies the alteration in allow-lists
	Name() string
	// Check reports whether the alteration can be applied to resp
	Check(resp Response) bool
	// Apply mutates the body of resp and returns it
	Apply(resp Response) (Response, error)
}

// Names of the registered alterations
const (
	NoOp                = "no-op"
	TwiddleJSON         = "twiddle-json"
	AddSignatures1      = "add-signatures-1"
	AddSignatures2      = "add-signatures-2"
	AddSignatures3      = "add-signatures-3"
	DeleteSignatures1   = "delete-signatures-1"
	DeleteSignatures2   = "delete-signatures-2"
	DeleteSignatures3   = "delete-signatures-3"
	DuplicateSignatures = "duplicate-signatures"
)

// deps are the shared collaborators handed to every alteration when the
// table is built
type deps struct {
	keys    keystore.Store
	rng     *rand.Rand
	entropy io.Reader
}

type entry struct {
	name  string
	build func(d deps) Alteration
}

// registry lists every alteration. Adding one means adding a type and a row.
var registry = []entry{
	{NoOp, func(deps) Alteration { return noOp{} }},
	{TwiddleJSON, func(deps) Alteration { return twiddleJSON{} }},
	{AddSignatures1, func(d deps) Alteration { return newAddSignatures(AddSignatures1, 1, d) }},
	{AddSignatures2, func(d deps) Alteration { return newAddSignatures(AddSignatures2, 2, d) }},
	{AddSignatures3, func(d deps) Alteration { return newAddSignatures(AddSignatures3, 3, d) }},
	{DeleteSignatures1, func(deps) Alteration { return deleteSignatures{name: DeleteSignatures1, count: 1} }},
	{DeleteSignatures2, func(deps) Alteration { return deleteSignatures{name: DeleteSignatures2, count: 2} }},
	{DeleteSignatures3, func(deps) Alteration { return deleteSignatures{name: DeleteSignatures3, count: 3} }},
	{DuplicateSignatures, func(deps) Alteration { return duplicateSignature{} }},
}

// Names returns the names of all registered alterations in table order
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.name)
	}
	return names
}

func build(d deps) []Alteration {
	res := make([]Alteration, 0, len(registry))
	for _, e := range registry {
		res = append(res, e.build(d))
	}
	return res
}
