// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/server"
)

// Keys of the request details recorded in the [server.CallContext] state.
const (
	StateRemoteAddr = "remoteAddr"
	StateUserAgent  = "userAgent"
	StateRequestID  = "requestId"
)

// CallContextFromRequest describes the caller of r.
func CallContextFromRequest(r *http.Request) *server.CallContext {
	cc := server.NewCallContext(r.Header.Get(a2a.UserIDHeader))
	cc.SetState(StateRemoteAddr, r.RemoteAddr)
	if ua := r.UserAgent(); ua != "" {
		cc.SetState(StateUserAgent, ua)
	}
	if id := chimw.GetReqID(r.Context()); id != "" {
		cc.SetState(StateRequestID, id)
	}
	return cc
}
