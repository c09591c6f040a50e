package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenPersistAndLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token")

	c := &CliConfig{TokenFile: file}
	c.SetToken(" ur1234567-0abc12de3f456gh7ij89k012\n")
	assert.Equal(t, "ur1234567-0abc12de3f456gh7ij89k012", c.Token())

	assert.NoError(t, c.PersistToken())

	loaded := &CliConfig{TokenFile: file}
	assert.NoError(t, loaded.LoadToken())
	assert.Equal(t, "ur1234567-0abc12de3f456gh7ij89k012", loaded.Token())
}

func TestLoadTokenIgnoresEmptyFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token")
	assert.NoError(t, os.WriteFile(file, nil, 0644))

	c := &CliConfig{APIToken: "configured", TokenFile: file}
	assert.NoError(t, c.LoadToken())
	assert.Equal(t, "configured", c.Token())
}

func TestLoadTokenMissingFileIsFine(t *testing.T) {
	c := &CliConfig{TokenFile: filepath.Join(t.TempDir(), "missing")}
	assert.NoError(t, c.LoadToken())
	assert.Equal(t, "", c.Token())
}
