// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutputWritesOneDocumentPerLine(t *testing.T) {
	var buf bytes.Buffer
	out := newOutput(&buf)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, out.Encode(map[string]int{"frame": i}))
		}()
	}
	wg.Wait()
	require.NoError(t, out.Line([]byte(`{"raw":true}`)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 11)
	for _, line := range lines[:10] {
		require.Regexp(t, `^\{"frame":\d\}$`, line)
	}
	require.Equal(t, `{"raw":true}`, lines[10])
}
