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

package keystore

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ed25519"

	"github.com/rdimitrov/go-tuf-mitm/metadata"
	"github.com/rdimitrov/go-tuf-mitm/metadata/signer"
)

const testRSABits = 2048

func generated(t *testing.T, count int) *FileStore {
	root := filepath.Join(t.TempDir(), "keys")
	assert.NoError(t, Generate(root, count, testRSABits))
	return NewFileStore(root)
}

func TestFileNames(t *testing.T) {
	s := NewFileStore("/keys")
	assert.Equal(t, "/keys", s.Root())
	assert.Equal(t, filepath.Join("/keys", "rsa_1.pem"), s.Path(signer.RSA, 1, true))
	assert.Equal(t, filepath.Join("/keys", "rsa_1.pub.pem"), s.Path(signer.RSA, 1, false))
	assert.Equal(t, filepath.Join("/keys", "ed25519_6"), s.Path(signer.Ed25519, 6, true))
	assert.Equal(t, filepath.Join("/keys", "ed25519_6.pub"), s.Path(signer.Ed25519, 6, false))
}

func TestGenerateAndLoad(t *testing.T) {
	s := generated(t, 2)

	for _, scheme := range signer.Schemes {
		for index := 1; index <= 2; index++ {
			km, err := s.Load(scheme, index)
			assert.NoError(t, err)
			assert.Equal(t, scheme, km.Scheme)
			assert.Equal(t, index, km.Index)

			// the loaded pair signs and verifies
			sig, err := signer.Sign(scheme, km.Private, []byte("payload"))
			assert.NoError(t, err)
			verifier, err := signer.LoadVerifier(scheme, km.Public)
			assert.NoError(t, err)
			assert.NoError(t, verifier.VerifySignature(bytes.NewReader(sig), bytes.NewReader([]byte("payload"))))
		}
	}

	rsaKM, err := s.Load(signer.RSA, 1)
	assert.NoError(t, err)
	_, ok := rsaKM.Private.(*rsa.PrivateKey)
	assert.True(t, ok)
	edKM, err := s.Load(signer.Ed25519, 1)
	assert.NoError(t, err)
	_, ok = edKM.Private.(ed25519.PrivateKey)
	assert.True(t, ok)
}

func TestGenerateInvalidCount(t *testing.T) {
	assert.Error(t, Generate(t.TempDir(), 0, testRSABits))
}

func TestLoadDerivesMissingPublicKey(t *testing.T) {
	s := generated(t, 1)
	want, err := s.LoadPublic(signer.Ed25519, 1)
	assert.NoError(t, err)
	assert.NoError(t, os.Remove(s.Path(signer.Ed25519, 1, false)))
	assert.NoError(t, os.Remove(s.Path(signer.RSA, 1, false)))

	km, err := s.Load(signer.Ed25519, 1)
	assert.NoError(t, err)
	assert.Equal(t, want, km.Public)

	km, err = s.Load(signer.RSA, 1)
	assert.NoError(t, err)
	assert.NotNil(t, km.Public)
}

func TestLoadEd25519Seed(t *testing.T) {
	root := t.TempDir()
	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	assert.NoError(t, err)
	path := filepath.Join(root, "ed25519_3")
	assert.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(seed)+"\n"), 0600))

	km, err := NewFileStore(root).Load(signer.Ed25519, 3)
	assert.NoError(t, err)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed), km.Private)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed).Public(), km.Public)
}

func TestLoadErrors(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)
	write := func(name, content string) {
		assert.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0600))
	}
	write("rsa_1.pem", "not a pem")
	write("ed25519_1", "!!!not base64")
	write("ed25519_2", base64.StdEncoding.EncodeToString([]byte("short")))
	write("ed25519_4", base64.StdEncoding.EncodeToString(make([]byte, ed25519.SeedSize)))
	write("ed25519_4.pub", base64.StdEncoding.EncodeToString([]byte("short")))

	// setup testing table (tt) and create subtest for each entry
	for _, tt := range []struct {
		name   string
		scheme signer.Scheme
		index  int
	}{
		{name: "invalid pem", scheme: signer.RSA, index: 1},
		{name: "invalid base64", scheme: signer.Ed25519, index: 1},
		{name: "invalid ed25519 length", scheme: signer.Ed25519, index: 2},
		{name: "missing key", scheme: signer.Ed25519, index: 3},
		{name: "invalid public key", scheme: signer.Ed25519, index: 4},
		{name: "unknown scheme", scheme: signer.Scheme("dsa"), index: 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			km, err := s.Load(tt.scheme, tt.index)
			assert.Nil(t, km)
			assert.Error(t, err)
		})
	}
}

func TestList(t *testing.T) {
	s := generated(t, 2)
	// files which are not private keys are skipped
	assert.NoError(t, os.WriteFile(filepath.Join(s.Root(), "README"), []byte("keys"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(s.Root(), ".hidden"), []byte("x"), 0644))
	assert.NoError(t, os.Mkdir(filepath.Join(s.Root(), "rsa_9.pem"), 0750))

	entries, err := s.List()
	assert.NoError(t, err)
	assert.Len(t, entries, 4)

	var order []string
	for _, e := range entries {
		order = append(order, filepath.Base(e.Path))
		assert.True(t, metadata.IsValidKeyID(e.KeyID))

		km, err := s.Load(e.Scheme, e.Index)
		assert.NoError(t, err)
		key, err := metadata.KeyFromPublicKey(km.Public)
		assert.NoError(t, err)
		assert.Equal(t, key.ID(), e.KeyID)
	}
	assert.Equal(t, []string{"ed25519_1", "ed25519_2", "rsa_1.pem", "rsa_2.pem"}, order)
}

func TestListMissingRoot(t *testing.T) {
	entries, err := NewFileStore(filepath.Join(t.TempDir(), "absent")).List()
	assert.Nil(t, entries)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// countingStore counts the loads reaching the wrapped store
type countingStore struct {
	mu    sync.Mutex
	loads int
	store Store
}

func (c *countingStore) Load(scheme signer.Scheme, index int) (*KeyMaterial, error) {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()
	return c.store.Load(scheme, index)
}

func TestCachingStore(t *testing.T) {
	counting := &countingStore{store: generated(t, 1)}
	cache := NewCachingStore(counting)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km, err := cache.Load(signer.Ed25519, 1)
			assert.NoError(t, err)
			assert.NotNil(t, km)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, counting.loads)

	first, err := cache.Load(signer.Ed25519, 1)
	assert.NoError(t, err)
	second, err := cache.Load(signer.Ed25519, 1)
	assert.NoError(t, err)
	assert.Same(t, first, second)

	// failures are not cached
	_, err = cache.Load(signer.Ed25519, 5)
	assert.Error(t, err)
	_, err = cache.Load(signer.Ed25519, 5)
	assert.Error(t, err)
	assert.Equal(t, 3, counting.loads)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
