// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"io"
	"net/http"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/internal/pool"
)

// setEventStreamHeaders prepares w for a server-sent event stream.
func setEventStreamHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// writeEvent writes resp as a single data event. The JSON payload is prefixed
// with [a2a.RecordSeparator].
func writeEvent(w io.Writer, resp *a2a.JSONRPCResponse) error {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	buf.WriteString("data: ")
	buf.WriteString(a2a.RecordSeparator)
	if err := json.MarshalWrite(buf, resp); err != nil {
		return err
	}
	buf.WriteString("\n\n")

	_, err := w.Write(buf.Bytes())
	return err
}
