// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package envconfig

import (
	"iter"
	"os"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Vars iterates the environment variables whose names start with prefix.
func Vars(prefix string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, env := range os.Environ() {
			key, val, ok := strings.Cut(env, "=")
			if !ok || !strings.HasPrefix(key, prefix) {
				continue
			}
			if !yield(key, val) {
				return
			}
		}
	}
}

// ParseDuration accepts either a Go duration ("2s", "1m30s") or an ISO 8601
// duration ("PT2S").
func ParseDuration(val string) (time.Duration, error) {
	if d, err := time.ParseDuration(val); err == nil {
		return d, nil
	}

	d, err := duration.Parse(val)
	if err != nil {
		return 0, err
	}
	return d.ToTimeDuration(), nil
}
