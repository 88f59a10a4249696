package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProject(t *testing.T) {
	t.Run("reads yaml", func(t *testing.T) {
		dir := t.TempDir()
		content := "project: storefront\nurl: http://localhost:5173\nlanguage: de\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0o644))

		p, err := LoadProject(dir)
		require.NoError(t, err)
		assert.Equal(t, &Project{Project: "storefront", URL: "http://localhost:5173", Language: "de"}, p)
	})

	t.Run("missing file defaults to directory name", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "shop")
		require.NoError(t, os.Mkdir(dir, 0o755))

		p, err := LoadProject(dir)
		require.NoError(t, err)
		assert.Equal(t, "shop", p.Project)
		assert.Empty(t, p.URL)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("project: [unterminated"), 0o644))

		_, err := LoadProject(dir)
		assert.Error(t, err)
	})

	t.Run("save then load", func(t *testing.T) {
		dir := t.TempDir()
		want := &Project{Project: "admin", URL: "http://localhost:3000"}
		require.NoError(t, want.Save(dir))

		got, err := LoadProject(dir)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
