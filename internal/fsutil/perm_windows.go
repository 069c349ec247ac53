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

package fsutil

import (
	"os"
)

// EnsureMaxPermissions tests the provided file info to make sure the
// permission bits do not exceed perm.
// On Windows system the permission bits are not really compatible with
// UNIX-like permission bits.
// Currently this method will always return nil.
func EnsureMaxPermissions(fi os.FileInfo, perm os.FileMode) error {
	return nil
}
