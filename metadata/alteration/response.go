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
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// MediaTypeJSON is the only media type alterations act on
const MediaTypeJSON = "application/json"

// Response is the part of an HTTP response an alteration needs: the
// content type and a body that is read and replaced as a whole
type Response interface {
	ContentType() string
	Body() []byte
	SetBody(body []byte)
}

// BufferedResponse is an in-memory Response
type BufferedResponse struct {
	contentType string
	body        []byte
}

// NewResponse returns a Response holding body
func NewResponse(contentType string, body []byte) *BufferedResponse {
	return &BufferedResponse{contentType: contentType, body: body}
}

func (r *BufferedResponse) ContentType() string {
	return r.contentType
}

func (r *BufferedResponse) Body() []byte {
	return r.body
}

func (r *BufferedResponse) SetBody(body []byte) {
	r.body = body
}

// HTTPResponse adapts a *http.Response. The body is read once up front and
// every SetBody swaps in a new reader and fixes up the length.
type HTTPResponse struct {
	resp *http.Response
	body []byte
}

// FromHTTP drains and closes the body of resp
func FromHTTP(resp *http.Response) (*HTTPResponse, error) {
	var body []byte
	if resp.Body != nil {
		data, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to close response body: %w", closeErr)
		}
		body = data
	}
	h := &HTTPResponse{resp: resp}
	h.SetBody(body)
	return h, nil
}

func (h *HTTPResponse) ContentType() string {
	return h.resp.Header.Get("Content-Type")
}

func (h *HTTPResponse) Body() []byte {
	return h.body
}

func (h *HTTPResponse) SetBody(body []byte) {
	h.body = body
	h.resp.Body = io.NopCloser(bytes.NewReader(body))
	h.resp.ContentLength = int64(len(body))
	if h.resp.Header == nil {
		h.resp.Header = http.Header{}
	}
	h.resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

// HTTP returns the wrapped response
func (h *HTTPResponse) HTTP() *http.Response {
	return h.resp
}

// isJSON compares the media type only, parameters such as charset are ignored
func isJSON(resp Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.ContentType())
	if err != nil {
		return false
	}
	return mediaType == MediaTypeJSON
}
