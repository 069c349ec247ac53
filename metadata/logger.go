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

package metadata

import "golang.org/x/exp/slices"

var log Logger = DiscardLogger{}

// Logger partially implements the go-log/logr's interface:
// https://github.com/go-logr/logr/blob/master/logr.go
// It is shared by the metadata, keystore and alteration packages.
type Logger interface {
	// Info logs a non-error message with key/value pairs
	Info(msg string, kv ...any)
	// Error logs an error with a given message and key/value pairs.
	Error(err error, msg string, kv ...any)
}

// DiscardLogger drops everything, it is the default until SetLogger is called
type DiscardLogger struct{}

func (d DiscardLogger) Info(msg string, kv ...any) {
}

func (d DiscardLogger) Error(err error, msg string, kv ...any) {
}

// SetLogger replaces the package global logger
func SetLogger(logger Logger) {
	log = logger
}

// GetLogger returns the package global logger
func GetLogger() Logger {
	return log
}

// WithValues returns a Logger that adds kv to every entry logged through it.
// The values are prepended to the pairs passed at the call site.
func WithValues(logger Logger, kv ...any) Logger {
	if len(kv) == 0 {
		return logger
	}
	if l, ok := logger.(valuesLogger); ok {
		return valuesLogger{base: l.base, kv: append(slices.Clip(l.kv), kv...)}
	}
	return valuesLogger{base: logger, kv: slices.Clone(kv)}
}

type valuesLogger struct {
	base Logger
	kv   []any
}

func (l valuesLogger) Info(msg string, kv ...any) {
	l.base.Info(msg, append(slices.Clip(l.kv), kv...)...)
}

func (l valuesLogger) Error(err error, msg string, kv ...any) {
	l.base.Error(err, msg, append(slices.Clip(l.kv), kv...)...)
}
