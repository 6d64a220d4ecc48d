package query

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresence_Resolve(t *testing.T) {
	p := Presence{}
	assert.Equal(t, "/nix/store/abc-zsh", p.Resolve("/nix/store/abc-zsh"))
	assert.Equal(t, "/nix/store/abc-zsh", p.Resolve("abc-zsh"))

	p.StoreDir = "/alt/store"
	assert.Equal(t, "/nix/store/abc-zsh", p.Resolve("/nix/store/abc-zsh"))
	assert.Equal(t, "/alt/store/abc-zsh", p.Resolve("abc-zsh"))
}

func TestPresence_Exists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/nix/store/abc-hello", []byte("#!"), 0o755))
	require.NoError(t, fs.MkdirAll("/nix/store/def-zsh/bin", 0o755))
	p := Presence{Fs: fs}

	assert.True(t, p.Exists("/nix/store/abc-hello"))
	assert.True(t, p.Exists("def-zsh"))
	assert.False(t, p.Exists("/nix/store/missing"))
}

func TestPresence_EmptyPathIsAbsent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(DefaultStoreDir, 0o755))
	p := Presence{Fs: fs}

	assert.True(t, p.Exists(DefaultStoreDir))
	assert.False(t, p.Exists(""))
}

func TestOSPresence(t *testing.T) {
	dir := t.TempDir()
	p := OSPresence(dir)
	assert.True(t, p.Exists(dir))
	assert.False(t, p.Exists("nope"))
}
