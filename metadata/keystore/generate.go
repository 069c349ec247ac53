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
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/rdimitrov/go-tuf-mitm/internal/fsutil"
	"github.com/rdimitrov/go-tuf-mitm/metadata"
	"github.com/rdimitrov/go-tuf-mitm/metadata/signer"
	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/exp/slices"
)

// DefaultKeyCount is the number of key pairs per scheme the alterations draw from
const DefaultKeyCount = 6

// Generate writes count key pairs of every scheme to root, numbered from 1.
// Existing files are overwritten.
func Generate(root string, count int, rsaBits int) error {
	log := metadata.GetLogger()

	if count < 1 {
		return fmt.Errorf("key count must be positive, got %d", count)
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return fmt.Errorf("failed to create key store %s: %w", root, err)
	}
	s := NewFileStore(root)
	for i := 1; i <= count; i++ {
		rsaKey, err := rsa.GenerateKey(rand.Reader, rsaBits)
		if err != nil {
			return fmt.Errorf("failed to generate rsa key %d: %w", i, err)
		}
		if err := s.write(signer.RSA, i, rsaKey, rsaKey.Public()); err != nil {
			return err
		}
		edPub, edKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return fmt.Errorf("failed to generate ed25519 key %d: %w", i, err)
		}
		if err := s.write(signer.Ed25519, i, edKey, edPub); err != nil {
			return err
		}
	}
	log.Info("Generated key store", "root", root, "count", count)
	return nil
}

func (s *FileStore) write(scheme signer.Scheme, index int, priv crypto.PrivateKey, pub crypto.PublicKey) error {
	var privData, pubData []byte
	var err error
	switch k := priv.(type) {
	case *rsa.PrivateKey:
		if privData, err = cryptoutils.MarshalPrivateKeyToPEM(k); err != nil {
			return err
		}
		if pubData, err = cryptoutils.MarshalPublicKeyToPEM(pub); err != nil {
			return err
		}
	case ed25519.PrivateKey:
		privData = []byte(base64.StdEncoding.EncodeToString(k))
		pubData = []byte(base64.StdEncoding.EncodeToString(pub.(ed25519.PublicKey)))
	default:
		return fmt.Errorf("unsupported private key type %T", priv)
	}
	if err := os.WriteFile(s.Path(scheme, index, true), privData, privateKeyPerm); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(s.Path(scheme, index, false), pubData, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

// Entry describes one private key present in a file store
type Entry struct {
	Scheme signer.Scheme
	Index  int
	Path   string
	// KeyID is the TUF key ID of the public key
	KeyID string
}

var keyFileRe = regexp.MustCompile(`^(rsa|ed25519)_([0-9]+)(\.pem)?$`)

// List loads every private key of the store and reports it sorted by
// scheme, then index
func (s *FileStore) List() ([]Entry, error) {
	files, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read key store %s: %w", s.root, err)
	}
	entries := []Entry{}
	for _, f := range files {
		ok, err := fsutil.IsKeyFile(f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		m := keyFileRe.FindStringSubmatch(f.Name())
		if m == nil {
			continue
		}
		scheme := signer.Scheme(m[1])
		// rsa private keys carry the .pem suffix, ed25519 ones do not
		if (scheme == signer.RSA) != (m[3] != "") {
			continue
		}
		index, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		km, err := s.Load(scheme, index)
		if err != nil {
			return nil, err
		}
		key, err := metadata.KeyFromPublicKey(km.Public)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Scheme: scheme,
			Index:  index,
			Path:   s.Path(scheme, index, true),
			KeyID:  key.ID(),
		})
	}
	slices.SortFunc(entries, func(a, b Entry) bool {
		if a.Scheme != b.Scheme {
			return a.Scheme < b.Scheme
		}
		return a.Index < b.Index
	})
	return entries, nil
}
