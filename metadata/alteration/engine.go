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
	"io"
	"math/rand"

	"golang.org/x/exp/slices"

	"github.com/rdimitrov/go-tuf-mitm/metadata"
	"github.com/rdimitrov/go-tuf-mitm/metadata/keystore"
)

// Engine picks and applies alterations. It holds no per-response state and
// may be shared between goroutines.
type Engine struct {
	alterations []Alteration
	rng         *rand.Rand
}

// Option configures an Engine
type Option func(*deps)

// WithKeyStore sets where signing keys come from. Without it the
// add-signatures alterations fail.
func WithKeyStore(store keystore.Store) Option {
	return func(d *deps) {
		d.keys = store
	}
}

// WithRand sets the source used for selection and key shuffling
func WithRand(rng *rand.Rand) Option {
	return func(d *deps) {
		d.rng = rng
	}
}

// WithEntropy sets the reader random keyids are drawn from
func WithEntropy(r io.Reader) Option {
	return func(d *deps) {
		d.entropy = r
	}
}

// NewEngine builds every registered alteration
func NewEngine(opts ...Option) *Engine {
	d := deps{
		entropy: crand.Reader,
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.rng == nil {
		d.rng = NewRand(randomSeed())
	}
	return &Engine{
		alterations: build(d),
		rng:         d.rng,
	}
}

// Lookup returns the registered alteration called name
func (e *Engine) Lookup(name string) (Alteration, bool) {
	for _, a := range e.alterations {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// Names returns the names of the alterations this engine knows
func (e *Engine) Names() []string {
	res := make([]string, 0, len(e.alterations))
	for _, a := range e.alterations {
		res = append(res, a.Name())
	}
	return res
}

// Select returns one alteration, uniformly at random, among those that are
// in allowed and whose Check accepts resp. It never fails: when nothing
// qualifies the no-op alteration is returned.
func (e *Engine) Select(resp Response, allowed []string) Alteration {
	var candidates []Alteration
	for _, a := range e.alterations {
		if !slices.Contains(allowed, a.Name()) {
			continue
		}
		if a.Check(resp) {
			candidates = append(candidates, a)
		}
	}
	metadata.GetLogger().Info("Applicable alterations", "count", len(candidates))
	if len(candidates) == 0 {
		return noOp{}
	}
	return candidates[e.rng.Intn(len(candidates))]
}

// Alter selects an alteration for resp and applies it
func (e *Engine) Alter(resp Response, allowed []string) (Response, Alteration, error) {
	a := e.Select(resp, allowed)
	log := metadata.WithValues(metadata.GetLogger(), "name", a.Name())
	log.Info("Selected alteration", "content-type", resp.ContentType())
	res, err := a.Apply(resp)
	if err != nil {
		log.Error(err, "Alteration failed")
		return nil, a, err
	}
	return res, a, nil
}
