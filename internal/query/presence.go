package query

import (
	"path"

	"github.com/spf13/afero"
)

// DefaultStoreDir is the root that relative store paths resolve under.
const DefaultStoreDir = "/nix/store"

// Presence checks whether store paths exist locally.
type Presence struct {
	Fs       afero.Fs
	StoreDir string
}

// OSPresence checks the real filesystem under storeDir, or DefaultStoreDir
// when storeDir is empty.
func OSPresence(storeDir string) Presence {
	return Presence{Fs: afero.NewOsFs(), StoreDir: storeDir}
}

// Resolve returns the filesystem path checked for storePath.
func (p Presence) Resolve(storePath string) string {
	if path.IsAbs(storePath) {
		return path.Clean(storePath)
	}
	dir := p.StoreDir
	if dir == "" {
		dir = DefaultStoreDir
	}
	return path.Join(dir, storePath)
}

// Exists reports whether storePath is present. Stat errors and an empty
// storePath count as absent.
func (p Presence) Exists(storePath string) bool {
	if storePath == "" {
		return false
	}
	fs := p.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	ok, err := afero.Exists(fs, p.Resolve(storePath))
	return err == nil && ok
}
