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

//go:build !windows
// +build !windows

package keystore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/rdimitrov/go-tuf-mitm/internal/fsutil"
	"github.com/rdimitrov/go-tuf-mitm/metadata/signer"
)

func TestLoadMissingKey(t *testing.T) {
	s := NewFileStore(t.TempDir())
	km, err := s.Load(signer.RSA, 1)
	assert.Nil(t, km)
	assert.ErrorIs(t, err, unix.ENOENT)
}

func TestGeneratePermissions(t *testing.T) {
	s := generated(t, 1)
	for _, scheme := range signer.Schemes {
		fi, err := os.Stat(s.Path(scheme, 1, true))
		assert.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())
		fi, err = os.Stat(s.Path(scheme, 1, false))
		assert.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), fi.Mode().Perm())
	}
}

func TestStrictPermissions(t *testing.T) {
	s := generated(t, 1)
	strict := NewFileStore(s.Root(), WithStrictPermissions(true))

	_, err := strict.Load(signer.Ed25519, 1)
	assert.NoError(t, err)

	assert.NoError(t, os.Chmod(s.Path(signer.Ed25519, 1, true), 0644))
	km, err := strict.Load(signer.Ed25519, 1)
	assert.Nil(t, km)
	assert.ErrorIs(t, err, fsutil.ErrPermission)

	// the lenient store still reads it
	_, err = s.Load(signer.Ed25519, 1)
	assert.NoError(t, err)

	// a missing file is reported as such, not as a permission problem
	_, err = strict.Load(signer.RSA, 7)
	assert.ErrorIs(t, err, unix.ENOENT)
}
