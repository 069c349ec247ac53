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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	validKeyID   = "d5fa855fce82db75ec64283e828cc90517df5edf5cdc57e7958a890d6556f5b7"
	validSigBody = `{"keyid":"` + validKeyID + `","method":"ed25519","sig":"c2ln"}`
)

func readFixture(t *testing.T, name string) []byte {
	data, err := os.ReadFile(filepath.Join("testdata", name))
	assert.NoError(t, err)
	return data
}

// document builds a signed document with the given signed members
func document(signed string) []byte {
	return []byte(`{"signatures":[` + validSigBody + `],"signed":{` + signed + `}}`)
}

func TestFromBytesMissingField(t *testing.T) {
	// setup testing table (tt) and create subtest for each entry
	for _, tt := range []struct {
		name  string
		input string
		field string
	}{
		{name: "empty object", input: `{}`, field: FieldSignatures},
		{name: "signed only", input: `{"signed": []}`, field: FieldSignatures},
		{name: "signatures only", input: `{"signatures": {}}`, field: FieldSigned},
		{name: "signed is not an object", input: `{"signed": [], "signatures": {}}`, field: FieldType},
		{name: "top level array", input: `[]`, field: FieldSignatures},
		{name: "no type", input: string(document(`"expires":"2030-01-01T00:00:00Z","version":1`)), field: FieldType},
		{name: "no expires", input: string(document(`"_type":"root","version":1`)), field: FieldExpires},
		{name: "no version", input: string(document(`"_type":"root","expires":"2030-01-01T00:00:00Z"`)), field: FieldVersion},
		{name: "targets role without targets", input: string(document(`"_type":"targets","expires":"2030-01-01T00:00:00Z","version":1`)), field: FieldTargets},
		{name: "signature without keyid", input: `{"signatures":[{"sig":"c2ln"}],"signed":{"_type":"root","expires":"x","version":1}}`, field: FieldKeyID},
		{name: "signature without sig", input: `{"signatures":[{"keyid":"` + validKeyID + `"}],"signed":{"_type":"root","expires":"x","version":1}}`, field: FieldSig},
		{name: "target without hashes", input: string(document(`"_type":"targets","expires":"x","version":1,"targets":{"/a":{"length":1}}`)), field: FieldHashes},
		{name: "target without length", input: string(document(`"_type":"targets","expires":"x","version":1,"targets":{"/a":{"hashes":{"sha256":"00"}}}`)), field: FieldLength},
	} {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := FromBytes([]byte(tt.input))
			assert.Nil(t, meta)
			assert.ErrorIs(t, err, ErrMissingField{})
			assert.ErrorIs(t, err, ErrMetadata{})
			var missing ErrMissingField
			if assert.ErrorAs(t, err, &missing) {
				assert.Equal(t, tt.field, missing.Field)
			}
		})
	}
}

func TestFromBytesInvalidKeyID(t *testing.T) {
	for _, keyid := range []string{
		"",
		"abcd",
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
		strings.Repeat("g", 64),
		strings.Repeat("0", 62) + "z0",
	} {
		input := `{"signatures":[{"keyid":"` + keyid + `","method":"ed25519","sig":"c2ln"}],"signed":{"_type":"root","expires":"x","version":1}}`
		meta, err := FromBytes([]byte(input))
		assert.Nil(t, meta)
		assert.ErrorIs(t, err, ErrInvalidKeyID{}, "keyid %q", keyid)
		assert.ErrorIs(t, err, ErrMetadata{})
		assert.ErrorContains(t, err, keyid)
	}
}

func TestFromBytesUnknownRole(t *testing.T) {
	for _, role := range []string{"mirror", "", "delegated", "root "} {
		meta, err := FromBytes(document(`"_type":"` + role + `","expires":"x","version":1`))
		assert.Nil(t, meta)
		assert.ErrorIs(t, err, ErrUnknownRole{}, "role %q", role)
		assert.Equal(t, ErrUnknownRole{Value: role}, err)
	}
}

func TestFromBytesCheckOrder(t *testing.T) {
	badSig := `{"keyid":"nothex","sig":"c2ln"}`

	// missing signed fields are reported before an unknown role
	_, err := FromBytes([]byte(`{"signatures":[` + badSig + `],"signed":{"_type":"mirror","version":1}}`))
	assert.ErrorIs(t, err, ErrMissingField{})

	// the role is checked before the signatures
	_, err = FromBytes([]byte(`{"signatures":[` + badSig + `],"signed":{"_type":"mirror","expires":"x","version":1}}`))
	assert.ErrorIs(t, err, ErrUnknownRole{})

	// the signatures are checked before the targets
	_, err = FromBytes([]byte(`{"signatures":[` + badSig + `],"signed":{"_type":"targets","expires":"x","version":1}}`))
	assert.ErrorIs(t, err, ErrInvalidKeyID{})
}

func TestFromBytesWrongTypes(t *testing.T) {
	// setup testing table (tt) and create subtest for each entry
	for _, tt := range []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{
			name:    "type is a number",
			input:   document(`"_type":5,"expires":"x","version":1`),
			wantErr: ErrType{},
		},
		{
			name:    "version is a string",
			input:   document(`"_type":"root","expires":"x","version":"1"`),
			wantErr: ErrType{},
		},
		{
			name:    "version is a float",
			input:   document(`"_type":"root","expires":"x","version":1.5`),
			wantErr: ErrType{},
		},
		{
			name:    "version does not fit",
			input:   document(`"_type":"root","expires":"x","version":123456789012345678901234567890`),
			wantErr: ErrValue{},
		},
		{
			name:    "expires is a number",
			input:   document(`"_type":"root","expires":2030,"version":1`),
			wantErr: ErrType{},
		},
		{
			name:    "signatures is an object",
			input:   []byte(`{"signatures":{},"signed":{"_type":"root","expires":"x","version":1}}`),
			wantErr: ErrType{},
		},
		{
			name:    "method is not a string",
			input:   []byte(`{"signatures":[{"keyid":"` + validKeyID + `","method":1,"sig":"c2ln"}],"signed":{"_type":"root","expires":"x","version":1}}`),
			wantErr: ErrType{},
		},
		{
			name:    "targets is an array",
			input:   document(`"_type":"targets","expires":"x","version":1,"targets":[]`),
			wantErr: ErrType{},
		},
		{
			name:    "length is a string",
			input:   document(`"_type":"targets","expires":"x","version":1,"targets":{"/a":{"length":"31","hashes":{"sha256":"00"}}}`),
			wantErr: ErrType{},
		},
		{
			name:    "empty hashes",
			input:   document(`"_type":"targets","expires":"x","version":1,"targets":{"/a":{"length":31,"hashes":{}}}`),
			wantErr: ErrValue{},
		},
		{
			name:    "digest is not a string",
			input:   document(`"_type":"targets","expires":"x","version":1,"targets":{"/a":{"length":31,"hashes":{"sha256":1}}}`),
			wantErr: ErrType{},
		},
		{
			name:    "custom is a string",
			input:   document(`"_type":"targets","expires":"x","version":1,"targets":{"/a":{"length":31,"hashes":{"sha256":"00"},"custom":"x"}}`),
			wantErr: ErrType{},
		},
		{
			name:    "not JSON",
			input:   []byte(`{"signatures":`),
			wantErr: ErrEncoding{},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := FromBytes(tt.input)
			assert.Nil(t, meta)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromBytesRoot(t *testing.T) {
	meta, err := FromBytes(readFixture(t, "root.json"))
	assert.NoError(t, err)
	assert.Equal(t, Role(ROOT), meta.Role)
	assert.Equal(t, int64(1), meta.Version)
	assert.Equal(t, "2030-01-01T00:00:00Z", meta.Expires)
	assert.Len(t, meta.Signatures, 1)
	assert.Equal(t, validKeyID, meta.Signatures[0].KeyID)
	assert.Equal(t, "ed25519", meta.Signatures[0].Method)
	assert.Nil(t, meta.Targets)
	assert.Equal(t, []string{"consistent_snapshot", "keys", "roles", "spec_version"}, meta.Extra.Keys())

	consistent, ok := meta.Extra.Get("consistent_snapshot")
	assert.True(t, ok)
	assert.Equal(t, false, consistent)
}

func TestFromBytesTargets(t *testing.T) {
	meta, err := FromBytes(readFixture(t, "targets.json"))
	assert.NoError(t, err)
	assert.Equal(t, Role(TARGETS), meta.Role)
	assert.Len(t, meta.Signatures, 2)
	assert.Equal(t, "RSASSA-PSS", meta.Signatures[1].Method)
	assert.Len(t, meta.Targets, 2)
	assert.Equal(t, "/file1.txt", meta.Targets[0].Filepath)
	assert.Equal(t, "/file2.txt", meta.Targets[1].Filepath)

	file1, ok := meta.Targets.Get("/file1.txt")
	assert.True(t, ok)
	assert.Equal(t, int64(31), file1.Length)
	assert.Equal(t, Hashes{
		"sha256": "65b8c67f51c993d898250f40aa57a317d854900b3a04895464313e48785440da",
		"sha512": "467430a68afae8e9f9c0771ea5d78bf0b3a0d79a2d3d3b40c69fde4dd42c461448aef76fcef4f5284931a1ffd0ac096d138ba3a0d6ca83fa8d7285a47a296f77",
	}, file1.Hashes)
	perm, ok := file1.Custom.Get("file_permissions")
	assert.True(t, ok)
	assert.Equal(t, "664", perm)
	assert.Equal(t, 1, file1.Custom.Len())

	file2, ok := meta.Targets.Get("/file2.txt")
	assert.True(t, ok)
	assert.Equal(t, int64(39), file2.Length)
	assert.Len(t, file2.Hashes, 2)
	assert.Nil(t, file2.Custom)

	_, ok = meta.Targets.Get("/file3.txt")
	assert.False(t, ok)

	// the modeled targets member does not leak into extra
	assert.False(t, meta.Extra.Has(FieldTargets))
	assert.Equal(t, []string{"delegations", "spec_version"}, meta.Extra.Keys())
}

func TestFromBytesNullCustom(t *testing.T) {
	meta, err := FromBytes(document(`"_type":"targets","expires":"x","version":1,"targets":{"/a":{"length":1,"hashes":{"sha256":"00"},"custom":null}}`))
	assert.NoError(t, err)
	assert.Nil(t, meta.Targets[0].Custom)

	data, err := meta.ToBytes()
	assert.NoError(t, err)
	assert.NotContains(t, string(data), FieldCustom)
}

func TestFromBytesEmptyTargets(t *testing.T) {
	meta, err := FromBytes(document(`"_type":"targets","expires":"x","version":1,"targets":{}`))
	assert.NoError(t, err)
	assert.Empty(t, meta.Targets)

	data, err := meta.ToBytes()
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"targets":{}`)
}

func TestToBytesRoundTrip(t *testing.T) {
	for _, name := range []string{"root.json", "snapshot.json", "targets.json", "timestamp.json"} {
		t.Run(name, func(t *testing.T) {
			meta, err := FromBytes(readFixture(t, name))
			assert.NoError(t, err)

			first, err := meta.ToBytes()
			assert.NoError(t, err)
			assert.NotContains(t, string(first), " ")
			assert.NotContains(t, string(first), "\n")

			again, err := FromBytes(first)
			assert.NoError(t, err)
			second, err := again.ToBytes()
			assert.NoError(t, err)
			assert.Equal(t, string(first), string(second))

			assert.Equal(t, meta.Role, again.Role)
			assert.Equal(t, meta.Version, again.Version)
			assert.Equal(t, meta.Signatures, again.Signatures)
			assert.Equal(t, meta.Extra.Keys(), again.Extra.Keys())
			for _, k := range meta.Extra.Keys() {
				want, _ := meta.Extra.Get(k)
				got, _ := again.Extra.Get(k)
				wantBytes, err := EncodeCanonical(want)
				assert.NoError(t, err)
				gotBytes, err := EncodeCanonical(got)
				assert.NoError(t, err)
				assert.Equal(t, wantBytes, gotBytes, "extra field %s", k)
			}
		})
	}
}

func TestToBytesFixtureBytes(t *testing.T) {
	meta, err := FromBytes(readFixture(t, "timestamp.json"))
	assert.NoError(t, err)
	data, err := meta.ToBytes()
	assert.NoError(t, err)

	// the encoding is the fixture with keys sorted and whitespace removed
	var decoded any
	assert.NoError(t, json.Unmarshal(data, &decoded))
	var fixture any
	assert.NoError(t, json.Unmarshal(readFixture(t, "timestamp.json"), &fixture))
	assert.Equal(t, fixture, decoded)
}

func TestEncodeModeledFieldsWin(t *testing.T) {
	meta, err := FromBytes(readFixture(t, "root.json"))
	assert.NoError(t, err)
	meta.Extra.Set(FieldVersion, json.Number("99"))
	meta.Extra.Set(FieldType, "timestamp")
	meta.Extra.Set("x-extra", "kept")

	data, err := meta.CanonicalSigned()
	assert.NoError(t, err)
	signed, err := DecodeValue(data)
	assert.NoError(t, err)
	obj := signed.(*Object)

	version, _ := obj.Get(FieldVersion)
	assert.Equal(t, json.Number("1"), version)
	typ, _ := obj.Get(FieldType)
	assert.Equal(t, ROOT, typ)
	extra, _ := obj.Get("x-extra")
	assert.Equal(t, "kept", extra)
}

func TestSignatureWithoutMethod(t *testing.T) {
	input := `{"signatures":[{"keyid":"` + validKeyID + `","sig":"c2ln"}],"signed":{"_type":"snapshot","expires":"x","version":3}}`
	meta, err := FromBytes([]byte(input))
	assert.NoError(t, err)
	assert.Equal(t, Signature{KeyID: validKeyID, Sig: "c2ln"}, meta.Signatures[0])

	data, err := meta.ToBytes()
	assert.NoError(t, err)
	assert.Equal(t, `{"signatures":[{"keyid":"`+validKeyID+`","sig":"c2ln"}],"signed":{"_type":"snapshot","expires":"x","version":3}}`, string(data))
}

func TestDuplicateSignaturesKept(t *testing.T) {
	input := `{"signatures":[` + validSigBody + `,` + validSigBody + `],"signed":{"_type":"timestamp","expires":"x","version":1}}`
	meta, err := FromBytes([]byte(input))
	assert.NoError(t, err)
	assert.Len(t, meta.Signatures, 2)
	assert.Equal(t, meta.Signatures[0], meta.Signatures[1])
}

func TestFromFile(t *testing.T) {
	meta, err := FromFile(filepath.Join("testdata", "snapshot.json"))
	assert.NoError(t, err)
	assert.Equal(t, Role(SNAPSHOT), meta.Role)
	assert.Equal(t, int64(3), meta.Version)

	meta, err = FromFile(filepath.Join("testdata", "absent.json"))
	assert.Nil(t, meta)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewRole(t *testing.T) {
	for _, name := range []string{"root", "snapshot", "targets", "timestamp", "ROOT", "Targets"} {
		role, err := NewRole(name)
		assert.NoError(t, err)
		assert.Equal(t, strings.ToLower(name), role.String())
	}
	_, err := NewRole("mirror")
	assert.ErrorIs(t, err, ErrUnknownRole{})
	assert.EqualError(t, err, "unknown role: mirror")
}

func TestIsValidKeyID(t *testing.T) {
	assert.True(t, IsValidKeyID(validKeyID))
	assert.True(t, IsValidKeyID(strings.ToUpper(validKeyID)))
	assert.False(t, IsValidKeyID(validKeyID[1:]))
	assert.False(t, IsValidKeyID(validKeyID+"0"))
	assert.False(t, IsValidKeyID(strings.Repeat("x", 64)))
}
