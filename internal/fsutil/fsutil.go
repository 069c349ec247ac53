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

// Package fsutil defines a set of internal utility functions used to
// interact with the file system.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrPermission = errors.New("unexpected permission")

// IsKeyFile tests whether a DirEntry appears to be a regular file of the
// key store, as opposed to a directory or a dotfile.
func IsKeyFile(e os.DirEntry) (bool, error) {
	if e.IsDir() || filepath.Base(e.Name())[0] == '.' {
		return false, nil
	}

	info, err := e.Info()
	if err != nil {
		return false, err
	}

	return info.Mode().IsRegular(), nil
}
