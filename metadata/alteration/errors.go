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

package alteration

import (
	"fmt"
)

// ErrNotSigned - the body is JSON but not an object with both signatures and signed
type ErrNotSigned struct {
	Msg string
}

func (e ErrNotSigned) Error() string {
	return fmt.Sprintf("not a signed document: %s", e.Msg)
}

// Is matches any ErrNotSigned
func (e ErrNotSigned) Is(target error) bool {
	return target == ErrNotSigned{}
}

// ErrNoSignature - there is no signature to duplicate
type ErrNoSignature struct{}

func (e ErrNoSignature) Error() string {
	return "no signature to duplicate"
}

// ErrNoKeyStore - signatures cannot be added without key material
type ErrNoKeyStore struct{}

func (e ErrNoKeyStore) Error() string {
	return "no key store configured"
}
