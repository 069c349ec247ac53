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

import (
	"fmt"
)

// Define the error types used by the metadata model and the alteration engine.
// The names chosen for error types should start in 'Err' except where
// there is a good reason not to, and provide that reason in those cases.

// Metadata errors

// ErrMetadata - a signed metadata document failed to parse or validate.
// It is the parent of every error returned by FromBytes
type ErrMetadata struct {
	Msg string
}

func (e ErrMetadata) Error() string {
	return fmt.Sprintf("metadata error: %s", e.Msg)
}

// ErrMissingField - a required field is absent from an entity of the document
type ErrMissingField struct {
	Entity string
	Field  string
}

func (e ErrMissingField) Error() string {
	return fmt.Sprintf("%s missing field: %s", e.Entity, e.Field)
}

// ErrMissingField is a subset of ErrMetadata
func (e ErrMissingField) Is(target error) bool {
	return target == ErrMetadata{} || target == ErrMissingField{}
}

// ErrUnknownRole - the declared _type is not one of the top level roles
type ErrUnknownRole struct {
	Value string
}

func (e ErrUnknownRole) Error() string {
	return fmt.Sprintf("unknown role: %s", e.Value)
}

// ErrUnknownRole is a subset of ErrMetadata
func (e ErrUnknownRole) Is(target error) bool {
	return target == ErrMetadata{} || target == ErrUnknownRole{}
}

// ErrInvalidKeyID - a signature keyid is not 64 hexadecimal characters
type ErrInvalidKeyID struct {
	Value string
}

func (e ErrInvalidKeyID) Error() string {
	return fmt.Sprintf("invalid keyid: %s", e.Value)
}

// ErrInvalidKeyID is a subset of ErrMetadata
func (e ErrInvalidKeyID) Is(target error) bool {
	return target == ErrMetadata{} || target == ErrInvalidKeyID{}
}

// ErrType - a field is present but holds the wrong kind of JSON value
type ErrType struct {
	Msg string
}

func (e ErrType) Error() string {
	return fmt.Sprintf("type error: %s", e.Msg)
}

// ErrType is a subset of ErrMetadata
func (e ErrType) Is(target error) bool {
	return target == ErrMetadata{} || target == ErrType{}
}

// ErrValue - a field holds a value of the right kind that is still not acceptable
type ErrValue struct {
	Msg string
}

func (e ErrValue) Error() string {
	return fmt.Sprintf("value error: %s", e.Msg)
}

// ErrValue is a subset of ErrMetadata
func (e ErrValue) Is(target error) bool {
	return target == ErrMetadata{} || target == ErrValue{}
}

// Encoding errors

// ErrEncoding - a value cannot be decoded from or encoded to (canonical) JSON
type ErrEncoding struct {
	Msg string
}

func (e ErrEncoding) Error() string {
	return fmt.Sprintf("encoding error: %s", e.Msg)
}

// Is matches any ErrEncoding
func (e ErrEncoding) Is(target error) bool {
	return target == ErrEncoding{}
}

// ErrContentType - a response does not carry the media type an operation requires
type ErrContentType struct {
	Expected string
	Got      string
}

func (e ErrContentType) Error() string {
	return fmt.Sprintf("expected content-type %s, got %s", e.Expected, e.Got)
}

// Is matches any ErrContentType
func (e ErrContentType) Is(target error) bool {
	return target == ErrContentType{}
}

// Download errors

// ErrDownload - An error occurred while attempting to download a file
type ErrDownload struct {
	Msg string
}

func (e ErrDownload) Error() string {
	return fmt.Sprintf("download error: %s", e.Msg)
}

// ErrDownloadLengthMismatch - Indicate that a mismatch of lengths was seen while downloading a file
type ErrDownloadLengthMismatch struct {
	Msg string
}

func (e ErrDownloadLengthMismatch) Error() string {
	return fmt.Sprintf("download length mismatch error: %s", e.Msg)
}

// ErrDownloadLengthMismatch is a subset of ErrDownload
func (e ErrDownloadLengthMismatch) Is(target error) bool {
	return target == ErrDownload{} || target == ErrDownloadLengthMismatch{}
}

// ErrDownloadHTTP - Returned by Fetcher interface implementations for HTTP errors
type ErrDownloadHTTP struct {
	StatusCode int
	URL        string
}

func (e ErrDownloadHTTP) Error() string {
	return fmt.Sprintf("failed to download %s, http status code: %d", e.URL, e.StatusCode)
}

// ErrDownloadHTTP is a subset of ErrDownload
func (e ErrDownloadHTTP) Is(target error) bool {
	return target == ErrDownload{} || target == ErrDownloadHTTP{}
}
