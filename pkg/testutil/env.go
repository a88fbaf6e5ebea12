package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// EnvPrefix is the prefix of every variable nmm reads.
const EnvPrefix = "NMM_"

// ClearEnv unsets every NMM_* variable for the duration of the test. Setting
// them to an empty value is not enough: config loading treats an empty
// variable as an override.
func ClearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		// Setenv registers the restore, Unsetenv does the clearing.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
