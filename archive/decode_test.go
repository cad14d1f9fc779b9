// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive_test

import (
	"testing"

	"github.com/sondehub/sondehub-go/archive"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	for name, tc := range map[string]struct {
		data     []byte
		expected []archive.Record
	}{
		"gzip array": {
			data: gzipped(t, `[{"frame":1},{"frame":2}]`),
			expected: []archive.Record{
				{"frame": 1.0},
				{"frame": 2.0},
			},
		},
		"gzip object": {
			data:     gzipped(t, `{"frame":1}`),
			expected: []archive.Record{{"frame": 1.0}},
		},
		"raw object": {
			data:     []byte(`{"a":1}`),
			expected: []archive.Record{{"a": 1.0}},
		},
		"raw array with null": {
			data:     []byte(" [{\"a\":1}, null]\n"),
			expected: []archive.Record{{"a": 1.0}},
		},
		"null": {
			data:     []byte(`null`),
			expected: nil,
		},
	} {
		t.Run(name, func(t *testing.T) {
			records, err := archive.Decode("key", tc.data)
			require.NoError(t, err)
			require.Equal(t, tc.expected, records)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	truncated := gzipped(t, `[{"frame":1},{"frame":2}]`)
	truncated = truncated[:len(truncated)-6]

	for name, data := range map[string][]byte{
		"empty":           {},
		"not json":        []byte(`not json`),
		"truncated gzip":  truncated,
		"gzip not json":   gzipped(t, `<html>`),
		"array of scalar": []byte(`[1,2]`),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := archive.Decode("date/x.json", data)
			var decErr *archive.DecodeError
			require.ErrorAs(t, err, &decErr)
			require.Equal(t, "date/x.json", decErr.Key)
		})
	}
}
