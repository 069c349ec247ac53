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
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// lockedSource makes a rand.Source64 safe for concurrent use
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// NewRand returns a goroutine safe generator. The same seed always gives
// the same sequence of selections and key shuffles.
func NewRand(seed int64) *rand.Rand {
	src, _ := rand.NewSource(seed).(rand.Source64)
	return rand.New(&lockedSource{src: src})
}

// randomSeed draws a seed from the operating system
func randomSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("alteration: failed to seed random source: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
