// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseAgent = "jats-engine/0.1"

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		files     map[string]string
		subdir    bool
		want      map[string]string
		wantAgent string
	}{
		{
			name:      "contact email trimmed",
			files:     map[string]string{ContactEmail: "  ops@example.org \n"},
			want:      map[string]string{ContactEmail: "ops@example.org"},
			wantAgent: baseAgent + " (mailto:ops@example.org)",
		},
		{
			name:      "blank contact email ignored",
			files:     map[string]string{ContactEmail: " \n\t "},
			want:      map[string]string{},
			wantAgent: baseAgent,
		},
		{
			name:      "hidden contact email ignored",
			files:     map[string]string{"." + ContactEmail: "ops@example.org", ".gitkeep": ""},
			want:      map[string]string{},
			wantAgent: baseAgent,
		},
		{
			name:      "subdirectories skipped",
			files:     map[string]string{ContactEmail: "ops@example.org"},
			subdir:    true,
			want:      map[string]string{ContactEmail: "ops@example.org"},
			wantAgent: baseAgent + " (mailto:ops@example.org)",
		},
		{
			name:      "empty directory",
			want:      map[string]string{},
			wantAgent: baseAgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			if tt.subdir {
				require.NoError(t, os.Mkdir(filepath.Join(dir, ContactEmail+".d"), 0o755))
			}

			got, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAgent, UserAgent(baseAgent, got))
		})
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), ".secrets"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, baseAgent, UserAgent(baseAgent, got))
}

func TestLoad_UnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, ContactEmail, "ops@example.org")
	bad := filepath.Join(dir, "unreadable")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o000))
	t.Cleanup(func() { os.Chmod(bad, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ContactEmail: "ops@example.org"}, got)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, baseAgent, UserAgent(baseAgent, nil))
	assert.Equal(t, baseAgent+" (mailto:ops@example.org)",
		UserAgent(baseAgent, map[string]string{ContactEmail: "ops@example.org"}))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
