// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/sondehub/sondehub-go/stream/internal"
	"github.com/stretchr/testify/require"
)

func TestTopicSet(t *testing.T) {
	set := internal.NewTopicSet("S1234567", "#")
	require.Equal(t, []string{"#", "S1234567"}, set.Snapshot())

	require.True(t, set.Add("A"))
	require.False(t, set.Add("A"))
	require.Equal(t, 3, set.Len())
	require.True(t, set.Contains("A"))

	require.True(t, set.Remove("A"))
	require.False(t, set.Remove("A"))
	require.False(t, set.Contains("A"))
	require.Equal(t, []string{"#", "S1234567"}, set.Snapshot())
}

func TestTopicSetConcurrentAdds(t *testing.T) {
	set := internal.NewTopicSet()

	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every filter is added twice; only one call may report it new.
			if set.Add(fmt.Sprintf("S%d", i%50)) {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 50, added)
	require.Equal(t, 50, set.Len())
}
