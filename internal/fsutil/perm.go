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

package fsutil

import (
	"fmt"
	"io/fs"
	"os"
)

// EnsureMaxPermissions tests the provided file info, returning an error if
// the file has permission bits outside of perm. Private keys use it to
// refuse group or world readable files.
func EnsureMaxPermissions(fi os.FileInfo, perm os.FileMode) error {
	// Clear all bits which are not related to the permission.
	mode := fi.Mode() & fs.ModePerm
	mask := ^perm
	if (mode & mask) != 0 {
		return fmt.Errorf("%w: got %#o, want at most %#o", ErrPermission, mode, perm&fs.ModePerm)
	}

	return nil
}
