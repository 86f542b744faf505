package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	content := "# comment\n\n" +
		"ECOMAP_TEST_NEW=from-file\n" +
		"ECOMAP_TEST_SET=from-file\n" +
		"export ECOMAP_TEST_EXPORTED=yes\n" +
		"ECOMAP_TEST_QUOTED=\"two words\" # trailing note\n" +
		"ECOMAP_TEST_SINGLE='a#b'\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("ECOMAP_TEST_SET", "from-env")
	for _, k := range []string{"ECOMAP_TEST_NEW", "ECOMAP_TEST_EXPORTED", "ECOMAP_TEST_QUOTED", "ECOMAP_TEST_SINGLE"} {
		t.Cleanup(func() { os.Unsetenv(k) })
	}

	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "from-file", os.Getenv("ECOMAP_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("ECOMAP_TEST_SET"))
	assert.Equal(t, "yes", os.Getenv("ECOMAP_TEST_EXPORTED"))
	assert.Equal(t, "two words", os.Getenv("ECOMAP_TEST_QUOTED"))
	assert.Equal(t, "a#b", os.Getenv("ECOMAP_TEST_SINGLE"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope")))
}
