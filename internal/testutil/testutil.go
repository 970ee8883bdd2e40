// Package testutil provides shared test helpers for creating config files.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a config file which keeps all data below tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	for _, d := range []string{"data", "reports"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`storage:
  driver: file
  file_path: %s
  sqlite_path: %s
defaults:
  start_range: 1
  end_range: 5
  show_images: false
outputs:
  report_directory: %s
`,
		filepath.Join(tmpDir, "data", "spelltrainer.yml"),
		filepath.Join(tmpDir, "data", "spelltrainer.db"),
		filepath.Join(tmpDir, "reports"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithWordsAPI creates a config file whose words API points at baseURL,
// typically an httptest server.
func SetupTestConfigWithWordsAPI(t *testing.T, tmpDir, baseURL string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, fmt.Appendf(nil, "words_api:\n  base_url: %s\n  timeout: 2s\n  retry_attempts: 0\n", baseURL)...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}
