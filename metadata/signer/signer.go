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

// Package signer produces raw signatures over canonical metadata bytes with
// one of the two supported asymmetric schemes.
package signer

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/sigstore/sigstore/pkg/signature"
)

// Scheme identifies a signing scheme and the key type it requires
type Scheme string

const (
	// RSA signs with RSASSA-PSS over SHA-256
	RSA Scheme = "rsa"
	// Ed25519 produces a raw 64 byte Ed25519 signature
	Ed25519 Scheme = "ed25519"
)

// Schemes lists every supported scheme in a stable order
var Schemes = []Scheme{RSA, Ed25519}

// Method names written in the "method" field of a signature record
const (
	MethodRSASSA_PSS = "RSASSA-PSS"
	MethodEd25519    = "ed25519"
)

// ParseScheme validates a scheme name
func ParseScheme(name string) (Scheme, error) {
	switch s := Scheme(name); s {
	case RSA, Ed25519:
		return s, nil
	default:
		return "", fmt.Errorf("unsupported signing scheme %q", name)
	}
}

// Method returns the signature record method name for the scheme
func (s Scheme) Method() string {
	if s == RSA {
		return MethodRSASSA_PSS
	}
	return MethodEd25519
}

func (s Scheme) String() string {
	return string(s)
}

// Sign signs message with key using scheme. The key must match the scheme:
// *rsa.PrivateKey for RSA and ed25519.PrivateKey for Ed25519.
func Sign(scheme Scheme, key crypto.PrivateKey, message []byte) ([]byte, error) {
	s, err := LoadSigner(scheme, key)
	if err != nil {
		return nil, err
	}
	sig, err := s.SignMessage(bytes.NewReader(message))
	if err != nil {
		return nil, fmt.Errorf("signing with %s key: %w", scheme, err)
	}
	return sig, nil
}

// LoadSigner returns a sigstore signer for key configured for scheme
func LoadSigner(scheme Scheme, key crypto.PrivateKey) (signature.Signer, error) {
	switch scheme {
	case RSA:
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("scheme %s requires an RSA private key, got %T", scheme, key)
		}
		var pssOpt = rsa.PSSOptions{Hash: crypto.SHA256}
		return signature.LoadRSAPSSSigner(rsaKey, crypto.SHA256, &pssOpt)
	case Ed25519:
		var edKey ed25519.PrivateKey
		switch k := key.(type) {
		case ed25519.PrivateKey:
			edKey = k
		case *ed25519.PrivateKey:
			edKey = *k
		default:
			return nil, fmt.Errorf("scheme %s requires an ed25519 private key, got %T", scheme, key)
		}
		if len(edKey) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("invalid ed25519 private key length %d", len(edKey))
		}
		return signature.LoadED25519Signer(edKey)
	default:
		return nil, fmt.Errorf("unsupported signing scheme %q", scheme)
	}
}

// LoadVerifier returns a sigstore verifier for a public key of scheme
func LoadVerifier(scheme Scheme, key crypto.PublicKey) (signature.Verifier, error) {
	switch scheme {
	case RSA:
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("scheme %s requires an RSA public key, got %T", scheme, key)
		}
		var pssOpt = rsa.PSSOptions{Hash: crypto.SHA256}
		return signature.LoadRSAPSSVerifier(rsaKey, crypto.SHA256, &pssOpt)
	case Ed25519:
		edKey, ok := key.(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("scheme %s requires an ed25519 public key, got %T", scheme, key)
		}
		return signature.LoadED25519Verifier(edKey)
	default:
		return nil, fmt.Errorf("unsupported signing scheme %q", scheme)
	}
}
