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

package testutils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rdimitrov/go-tuf-mitm/metadata/keystore"
)

// TestRSABits keeps key generation fast while staying above the minimum
// size the standard library accepts
const TestRSABits = 2048

var (
	TempDir     string
	MetadataDir string
	KeystoreDir string
)

// SetupTestDirs copies the metadata fixtures found at metadataPath to a
// temporary directory and generates a full key store next to them
func SetupTestDirs(metadataPath string) error {
	tmp := os.TempDir()
	var err error
	TempDir, err = os.MkdirTemp(tmp, "tuf-mitm")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}

	MetadataDir = filepath.Join(TempDir, "metadata")
	absPath, err := filepath.Abs(metadataPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	err = Copy(absPath, MetadataDir)
	if err != nil {
		return fmt.Errorf("failed to copy metadata to %s: %w", MetadataDir, err)
	}

	KeystoreDir = filepath.Join(TempDir, "keys")
	err = keystore.Generate(KeystoreDir, keystore.DefaultKeyCount, TestRSABits)
	if err != nil {
		return fmt.Errorf("failed to generate keystore in %s: %w", KeystoreDir, err)
	}

	return nil
}

// ReadMetadata returns the bytes of a copied metadata fixture
func ReadMetadata(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(MetadataDir, name))
}

func Copy(fromPath string, toPath string) error {
	err := os.MkdirAll(toPath, 0750)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", toPath, err)
	}
	files, err := os.ReadDir(fromPath)
	if err != nil {
		return fmt.Errorf("failed to read path %s: %w", fromPath, err)
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fromPath, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", file.Name(), err)
		}
		filePath := filepath.Join(toPath, file.Name())
		err = os.WriteFile(filePath, data, 0640)
		if err != nil {
			return fmt.Errorf("failed to write file %s: %w", filePath, err)
		}
	}
	return nil
}

func Cleanup() {
	log.Printf("cleaning temporary directory: %s\n", TempDir)
	err := os.RemoveAll(TempDir)
	if err != nil {
		log.Fatalf("failed to cleanup test directories: %v", err)
	}
}
