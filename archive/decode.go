// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Record is one telemetry document from the archive.
type Record map[string]any

// Decode turns one archive object into records. Objects are normally gzipped
// JSON; an object without a gzip header is read as plain JSON. A JSON array
// contributes each of its objects, a JSON object contributes itself.
func Decode(key string, data []byte) ([]Record, error) {
	body, err := gunzip(data)
	if err != nil {
		return nil, &DecodeError{Key: key, wrapped: err}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &DecodeError{Key: key, wrapped: errors.New("empty object")}
	}

	if body[0] == '[' {
		var records []Record
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, &DecodeError{Key: key, wrapped: err}
		}
		// Drop JSON nulls in the array.
		out := records[:0]
		for _, r := range records {
			if r != nil {
				out = append(out, r)
			}
		}
		return out, nil
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, &DecodeError{Key: key, wrapped: err}
	}
	if record == nil {
		return nil, nil
	}
	return []Record{record}, nil
}

func gunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if errors.Is(err, gzip.ErrHeader) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
