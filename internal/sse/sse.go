// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package sse decodes server-sent event streams.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"iter"
)

// maxEventSize bounds a single line of an event stream.
const maxEventSize = 16 << 20

// Event is one server-sent event.
type Event struct {
	Name string
	Data []byte
}

// Scan parses a server-sent event stream. Multiple data lines of one event
// are joined with a newline; comments and unknown fields are skipped.
// The sequence ends at EOF or on the first read error.
func Scan(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64<<10), maxEventSize)

		var (
			evt     Event
			hasData bool
		)
		for scanner.Scan() {
			line := bytes.TrimSuffix(scanner.Bytes(), []byte("\r"))
			if len(line) == 0 {
				if hasData {
					if !yield(evt, nil) {
						return
					}
				}
				evt, hasData = Event{}, false
				continue
			}
			if line[0] == ':' {
				continue
			}

			field, value, _ := bytes.Cut(line, []byte(":"))
			value = bytes.TrimPrefix(value, []byte(" "))
			switch string(field) {
			case "event":
				evt.Name = string(value)
			case "data":
				if hasData {
					evt.Data = append(evt.Data, '\n')
				}
				evt.Data = append(evt.Data, value...)
				hasData = true
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Event{}, err)
			return
		}
		if hasData {
			yield(evt, nil)
		}
	}
}
