// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package envconfig_test

import (
	"maps"
	"testing"
	"time"

	"github.com/sondehub/sondehub-go/internal/envconfig"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	for val, expected := range map[string]time.Duration{
		"2s":      2 * time.Second,
		"1m30s":   90 * time.Second,
		"PT2S":    2 * time.Second,
		"PT1M30S": 90 * time.Second,
	} {
		d, err := envconfig.ParseDuration(val)
		require.NoError(t, err, val)
		require.Equal(t, expected, d, val)
	}

	_, err := envconfig.ParseDuration("soon")
	require.Error(t, err)
}

func TestVars(t *testing.T) {
	t.Setenv("ENVCONFIG_TEST_A", "1")
	t.Setenv("ENVCONFIG_TEST_B", "x=y")
	t.Setenv("OTHER_ENVCONFIG_TEST", "2")

	vars := maps.Collect(envconfig.Vars("ENVCONFIG_TEST_"))
	require.Equal(t, map[string]string{
		"ENVCONFIG_TEST_A": "1",
		"ENVCONFIG_TEST_B": "x=y",
	}, vars)
}
