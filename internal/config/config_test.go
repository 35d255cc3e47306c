package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesearch/simplesearch/simplesearch"
	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("PRODUCTS_DSN", "postgres://localhost/products")
	path := writeFile(t, "simplesearch.yaml", `
logging:
  level: debug
  format: json
indexes:
  - name: articles
    storage_folder: ./var
    strict_identifiers: true
  - name: products
    backend: Postgres
    dsn: ${PRODUCTS_DSN}
    schema: shop
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.Len(t, cfg.Indexes, 2)

	articles, ok := cfg.Index("articles")
	require.True(t, ok)
	assert.Equal(t, simplesearch.OpenOptions{StorageFolder: "./var", StrictIdentifiers: true}, articles.OpenOptions())

	products, ok := cfg.Index("products")
	require.True(t, ok)
	o := products.OpenOptions()
	assert.Equal(t, storage.BackendPostgres, o.Backend)
	assert.Equal(t, "postgres://localhost/products", o.DSN)
	assert.Equal(t, "shop", o.Schema)

	_, ok = cfg.Index("missing")
	assert.False(t, ok)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "simplesearch.toml", `
[logging]
level = "info"

[[indexes]]
name = "articles"
backend = "mysql"
dsn = "user:pw@tcp(localhost:3306)/search"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	ix, ok := cfg.Index("articles")
	require.True(t, ok)
	assert.Equal(t, storage.BackendMySQL, ix.OpenOptions().Backend)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"unknown extension", "c.ini", "x=1"},
		{"unknown field", "c.yaml", "indexs: []"},
		{"missing name", "c.yaml", "indexes:\n  - backend: sqlite\n"},
		{"duplicate name", "c.yaml", "indexes:\n  - name: a\n  - name: a\n"},
		{"unknown backend", "c.toml", "[[indexes]]\nname = \"a\"\nbackend = \"oracle\"\n"},
		{"server without dsn", "c.yaml", "indexes:\n  - name: a\n    backend: mysql\n"},
		{"bad level", "c.yaml", "logging:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, simplesearch.IsKind(err, simplesearch.ErrConfig), err.Error())
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrConfig))
}
