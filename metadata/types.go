// Copyright 2022 VMware, Inc.
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
	"sync"
)

// Define top level role names
const (
	ROOT      = "root"
	SNAPSHOT  = "snapshot"
	TARGETS   = "targets"
	TIMESTAMP = "timestamp"
)

// Define the wire names of a signed metadata document
const (
	FieldSignatures = "signatures"
	FieldSigned     = "signed"
	FieldType       = "_type"
	FieldExpires    = "expires"
	FieldVersion    = "version"
	FieldTargets    = "targets"
	FieldKeyID      = "keyid"
	FieldMethod     = "method"
	FieldSig        = "sig"
	FieldLength     = "length"
	FieldHashes     = "hashes"
	FieldCustom     = "custom"
)

// KeyIDLength is the number of hex characters of a keyid (32 raw bytes)
const KeyIDLength = 64

// Role is one of the four top level roles, always stored in lower case.
// Use NewRole to obtain one from untrusted input.
type Role string

// Metadata is a parsed signed metadata document. Fields of the signed
// section which are not modeled are kept in Extra in document order.
type Metadata struct {
	Signatures Signatures
	Role       Role
	Expires    string
	Version    int64
	// Targets is set iff Role is TARGETS
	Targets Targets
	Extra   *Object
}

type Signature struct {
	KeyID  string
	Method string
	Sig    string
}

// Signatures keeps document order, duplicates are allowed
type Signatures []Signature

type Target struct {
	Filepath string
	Length   int64
	Hashes   Hashes
	Custom   *Object
}

// Hashes maps a hash algorithm name to a hex digest
type Hashes map[string]string

// Targets keeps document order, file paths are unique
type Targets []Target

// Key is the TUF representation of a public key, used to derive key IDs
type Key struct {
	Type   string `json:"keytype"`
	Scheme string `json:"scheme"`
	Value  KeyVal `json:"keyval"`
	id     string
	idOnce sync.Once
}

type KeyVal struct {
	PublicKey string `json:"public"`
}
