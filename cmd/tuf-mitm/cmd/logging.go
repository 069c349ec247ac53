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

package cmd

import (
	"fmt"
	"io"
	stdlog "log"

	"github.com/go-logr/stdr"
	"github.com/sirupsen/logrus"

	"github.com/rdimitrov/go-tuf-mitm/metadata"
)

// logrusLogger adapts a logrus logger to metadata.Logger
type logrusLogger struct {
	log *logrus.Logger
}

func (l logrusLogger) Info(msg string, kv ...any) {
	l.log.WithFields(fields(kv)).Info(msg)
}

func (l logrusLogger) Error(err error, msg string, kv ...any) {
	l.log.WithFields(fields(kv)).WithError(err).Error(msg)
}

// fields turns logr style key/value pairs into logrus fields. A dangling
// key is kept with a nil value.
func fields(kv []any) logrus.Fields {
	res := logrus.Fields{}
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var val any
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		res[key] = val
	}
	return res
}

// setupLogging installs the library logger. Text output is only produced
// in verbose mode; JSON output always carries errors.
func setupLogging(format string, verbose bool, out io.Writer) error {
	switch format {
	case LogFormatText:
		if !verbose {
			metadata.SetLogger(metadata.DiscardLogger{})
			return nil
		}
		metadata.SetLogger(stdr.New(stdlog.New(out, "tuf-mitm ", stdlog.LstdFlags)))
		stdr.SetVerbosity(5)
	case LogFormatJSON:
		l := logrus.New()
		l.SetOutput(out)
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.ErrorLevel)
		if verbose {
			l.SetLevel(logrus.DebugLevel)
		}
		metadata.SetLogger(logrusLogger{log: l})
	default:
		return fmt.Errorf("unknown log format %q, want %s or %s", format, LogFormatText, LogFormatJSON)
	}
	return nil
}
