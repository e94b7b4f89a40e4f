// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"bytes"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// DecodeRequest decodes and validates a JSON-RPC 2.0 request envelope.
//
// A body that is not valid JSON yields [a2a.JSONParseError]; any other
// envelope defect yields [a2a.InvalidRequestError]. When the id could be
// decoded, the returned request carries it even alongside an error so the
// error response can echo it.
func DecodeRequest(body []byte) (*a2a.JSONRPCRequest, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !jsontext.Value(body).IsValid() {
		return nil, &a2a.JSONParseError{Msg: "request body is not valid JSON"}
	}
	if body[0] != '{' {
		return nil, &a2a.InvalidRequestError{Msg: "request must be a JSON object"}
	}

	var fields map[string]jsontext.Value
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &a2a.InvalidRequestError{Msg: err.Error()}
	}

	req := new(a2a.JSONRPCRequest)
	id, err := decodeID(fields["id"])
	if err != nil {
		return req, err
	}
	req.ID = id

	if err := decodeString(fields["jsonrpc"], &req.JSONRPC); err != nil || req.JSONRPC != a2a.JSONRPCVersion {
		return req, &a2a.InvalidRequestError{Msg: `jsonrpc must be "2.0"`}
	}
	if err := decodeString(fields["method"], &req.Method); err != nil || req.Method == "" {
		return req, &a2a.InvalidRequestError{Msg: "method must be a non-empty string"}
	}

	if params, ok := fields["params"]; ok {
		switch params.Kind() {
		case 'n':
		case '{':
			req.Params = params
		default:
			return req, &a2a.InvalidRequestError{Msg: "params must be an object"}
		}
	}
	return req, nil
}

// decodeID accepts a string, a number or null. A missing id is null.
func decodeID(v jsontext.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	var id any
	if err := json.Unmarshal(v, &id); err != nil {
		return nil, &a2a.InvalidRequestError{Msg: err.Error()}
	}
	switch id.(type) {
	case nil, string, float64:
		return id, nil
	default:
		return nil, &a2a.InvalidRequestError{Msg: "id must be a string, a number or null"}
	}
}

func decodeString(v jsontext.Value, dst *string) error {
	if v.Kind() != '"' {
		return &a2a.InvalidRequestError{Msg: "expected a string"}
	}
	return json.Unmarshal(v, dst)
}

// decodeParams decodes the request params into a new T. Absent params decode
// to the zero T, which the params' own validation then rejects as needed.
func decodeParams[T any](req *a2a.JSONRPCRequest) (*T, error) {
	p := new(T)
	if len(req.Params) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(req.Params, p); err != nil {
		return nil, &a2a.InvalidParamsError{Msg: err.Error()}
	}
	return p, nil
}
