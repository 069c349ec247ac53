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

// Package keystore loads the signing keys used to forge extra signatures.
//
// A file store keeps one file per key below a root directory:
//
//	rsa_<n>.pem        PEM encoded RSA private key
//	rsa_<n>.pub.pem    PEM encoded RSA public key
//	ed25519_<n>        base64 encoded raw Ed25519 private key
//	ed25519_<n>.pub    base64 encoded raw Ed25519 public key
package keystore

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rdimitrov/go-tuf-mitm/internal/fsutil"
	"github.com/rdimitrov/go-tuf-mitm/metadata"
	"github.com/rdimitrov/go-tuf-mitm/metadata/signer"
	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"golang.org/x/crypto/ed25519"
)

// privateKeyPerm is the widest mode a private key file may have when
// permissions are enforced
const privateKeyPerm os.FileMode = 0600

// KeyMaterial is a loaded asymmetric key pair
type KeyMaterial struct {
	Scheme  signer.Scheme
	Index   int
	Private crypto.PrivateKey
	Public  crypto.PublicKey
}

// Store hands out key material by scheme and index
type Store interface {
	Load(scheme signer.Scheme, index int) (*KeyMaterial, error)
}

// FileStore reads keys from a directory on every Load
type FileStore struct {
	root   string
	strict bool
}

// Option configures a FileStore
type Option func(*FileStore)

// WithStrictPermissions rejects private key files readable by group or others
func WithStrictPermissions(strict bool) Option {
	return func(s *FileStore) {
		s.strict = strict
	}
}

// NewFileStore returns a store rooted at root
func NewFileStore(root string, opts ...Option) *FileStore {
	s := &FileStore{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory keys are read from
func (s *FileStore) Root() string {
	return s.root
}

// Path returns where the key addressed by scheme, index and visibility lives
func (s *FileStore) Path(scheme signer.Scheme, index int, private bool) string {
	return filepath.Join(s.root, fileName(scheme, index, private))
}

func fileName(scheme signer.Scheme, index int, private bool) string {
	switch scheme {
	case signer.RSA:
		if private {
			return fmt.Sprintf("rsa_%d.pem", index)
		}
		return fmt.Sprintf("rsa_%d.pub.pem", index)
	default:
		if private {
			return fmt.Sprintf("%s_%d", scheme, index)
		}
		return fmt.Sprintf("%s_%d.pub", scheme, index)
	}
}

// Load reads the private key and its public half. The public key file is
// optional, the public key is derived from the private one when it is absent.
func (s *FileStore) Load(scheme signer.Scheme, index int) (*KeyMaterial, error) {
	log := metadata.GetLogger()

	path := s.Path(scheme, index, true)
	data, err := s.readPrivate(path)
	if err != nil {
		return nil, err
	}
	priv, err := parsePrivateKey(scheme, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	km := &KeyMaterial{Scheme: scheme, Index: index, Private: priv}

	pub, err := s.LoadPublic(scheme, index)
	switch {
	case err == nil:
		km.Public = pub
	case errors.Is(err, os.ErrNotExist):
		km.Public = priv.(crypto.Signer).Public()
	default:
		return nil, err
	}
	log.Info("Loaded key material", "scheme", scheme, "index", index, "path", path)
	return km, nil
}

// LoadPublic reads only the public key file
func (s *FileStore) LoadPublic(scheme signer.Scheme, index int) (crypto.PublicKey, error) {
	path := s.Path(scheme, index, false)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	pub, err := parsePublicKey(scheme, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return pub, nil
}

func (s *FileStore) readPrivate(path string) ([]byte, error) {
	if s.strict {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		if err := fsutil.EnsureMaxPermissions(fi, privateKeyPerm); err != nil {
			return nil, fmt.Errorf("private key %s: %w", path, err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return data, nil
}

func parsePrivateKey(scheme signer.Scheme, data []byte) (crypto.PrivateKey, error) {
	switch scheme {
	case signer.RSA:
		priv, err := cryptoutils.UnmarshalPEMToPrivateKey(data, cryptoutils.SkipPassword)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid rsa private key")
		}
		return rsaKey, nil
	case signer.Ed25519:
		raw, err := decodeBase64(data)
		if err != nil {
			return nil, err
		}
		switch len(raw) {
		case ed25519.SeedSize:
			return ed25519.NewKeyFromSeed(raw), nil
		case ed25519.PrivateKeySize:
			return ed25519.PrivateKey(raw), nil
		default:
			return nil, fmt.Errorf("invalid ed25519 private key length %d", len(raw))
		}
	default:
		return nil, fmt.Errorf("unsupported signing scheme %q", scheme)
	}
}

func parsePublicKey(scheme signer.Scheme, data []byte) (crypto.PublicKey, error) {
	switch scheme {
	case signer.RSA:
		pub, err := cryptoutils.UnmarshalPEMToPublicKey(data)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("invalid rsa public key")
		}
		return rsaKey, nil
	case signer.Ed25519:
		raw, err := decodeBase64(data)
		if err != nil {
			return nil, err
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 public key length %d", len(raw))
		}
		return ed25519.PublicKey(raw), nil
	default:
		return nil, fmt.Errorf("unsupported signing scheme %q", scheme)
	}
}

func decodeBase64(data []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 key data: %w", err)
	}
	return raw, nil
}

// CachingStore keeps every key it loaded from the wrapped store.
// It is safe for concurrent use.
type CachingStore struct {
	store Store
	mu    sync.Mutex
	keys  map[cacheKey]*KeyMaterial
}

type cacheKey struct {
	scheme signer.Scheme
	index  int
}

// NewCachingStore wraps store
func NewCachingStore(store Store) *CachingStore {
	return &CachingStore{
		store: store,
		keys:  map[cacheKey]*KeyMaterial{},
	}
}

// Load returns the cached key material or loads it from the wrapped store.
// Failures are not cached.
func (c *CachingStore) Load(scheme signer.Scheme, index int) (*KeyMaterial, error) {
	k := cacheKey{scheme: scheme, index: index}
	c.mu.Lock()
	defer c.mu.Unlock()
	if km, ok := c.keys[k]; ok {
		return km, nil
	}
	km, err := c.store.Load(scheme, index)
	if err != nil {
		return nil, err
	}
	c.keys[k] = km
	return km, nil
}
