// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// output writes one JSON document per line. It is safe for concurrent use.
type output struct {
	mu  sync.Mutex
	buf *bufio.Writer
	enc *json.Encoder
}

func newOutput(w io.Writer) *output {
	buf := bufio.NewWriter(w)
	return &output{buf: buf, enc: json.NewEncoder(buf)}
}

// Encode writes v followed by a newline and flushes it.
func (o *output) Encode(v any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.enc.Encode(v); err != nil {
		return err
	}
	return o.buf.Flush()
}

// Line writes pre-encoded bytes followed by a newline and flushes them.
func (o *output) Line(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.buf.Write(data); err != nil {
		return err
	}
	if err := o.buf.WriteByte('\n'); err != nil {
		return err
	}
	return o.buf.Flush()
}
