// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package options

import "iter"

// Apply filters the provided options down to the ones implementing O, in
// order, skipping nil entries. It allows a single option value to serve
// several components (e.g. a logger option accepted by every constructor).
func Apply[O, I any](opts []I, rest ...I) iter.Seq[O] {
	return func(yield func(O) bool) {
		for _, list := range [][]I{opts, rest} {
			for _, opt := range list {
				if o, ok := any(opt).(O); ok {
					if !yield(o) {
						return
					}
				}
			}
		}
	}
}
