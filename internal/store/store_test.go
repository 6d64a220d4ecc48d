package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nixdex/internal/fuzzy"
)

func pkg(attr, name, storePath string) Package {
	return Package{
		Attribute: attr,
		Name:      Str(name),
		StorePath: Str(storePath),
	}
}

// buildIndex creates an index at a fresh temp path containing pkgs.
func buildIndex(t *testing.T, pkgs ...Package) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.sqlite")
	w, err := Create(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Build(pkgs, map[string]string{MetaSource: "test"}))
	require.NoError(t, w.Close())
	return path
}

func openIndex(t *testing.T, path string) *Reader {
	t.Helper()
	r, err := OpenReadOnly(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func ranked(t *testing.T, r *Reader, query string) []Package {
	t.Helper()
	var out []Package
	require.NoError(t, r.Ranked(query, func(p Package) bool {
		out = append(out, p)
		return true
	}))
	return out
}

func TestExact_RoundTrip(t *testing.T) {
	in := Package{
		Attribute:       "zsh",
		Name:            Str("zsh"),
		Version:         Str("5.9"),
		Description:     Str("The Z shell"),
		LongDescription: Str("Zsh is a UNIX command interpreter."),
		StorePath:       Str("/nix/store/abc-zsh-5.9"),
		Homepage:        Str("https://www.zsh.org/"),
	}
	r := openIndex(t, buildIndex(t, in))

	got, err := r.Exact("zsh")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in, *got)
	assert.Nil(t, got.Score)
	assert.Nil(t, got.Present)
}

func TestExact_Missing(t *testing.T) {
	r := openIndex(t, buildIndex(t, pkg("zsh", "zsh", "/nix/store/abc-zsh-5.9")))

	got, err := r.Exact("bash")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExact_NoStorePathIsNotAResult(t *testing.T) {
	r := openIndex(t, buildIndex(t,
		pkg("zsh", "zsh", "/nix/store/abc-zsh-5.9"),
		Package{Attribute: "stdenv", Name: Str("stdenv")},
	))

	got, err := r.Exact("stdenv")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRanked_OrderAndTieBreak(t *testing.T) {
	r := openIndex(t, buildIndex(t,
		pkg("zsh-completions", "zsh-completions", "/nix/store/1"),
		pkg("bash", "bash", "/nix/store/2"),
		pkg("zsh", "zsh", "/nix/store/3"),
		pkg("fish", "fish", "/nix/store/4"),
		Package{Attribute: "stdenv", Name: Str("zsh")},
	))

	got := ranked(t, r, "zsh")
	require.Len(t, got, 4)

	assert.Equal(t, "zsh", got[0].Attribute)
	assert.Equal(t, fuzzy.MaxScore, *got[0].Score)
	assert.Equal(t, "zsh-completions", got[1].Attribute)
	assert.Greater(t, *got[1].Score, fuzzy.NoMatch)

	// Non-matches tie at the lowest rank and fall back to attribute order.
	assert.Equal(t, "bash", got[2].Attribute)
	assert.Equal(t, "fish", got[3].Attribute)
	assert.Equal(t, fuzzy.NoMatch, *got[2].Score)
	assert.Equal(t, fuzzy.NoMatch, *got[3].Score)
}

func TestRanked_PrefixBeforeInfix(t *testing.T) {
	r := openIndex(t, buildIndex(t,
		pkg("oh-my-zsh", "oh-my-zsh", "/nix/store/1"),
		pkg("zsh-completions", "zsh-completions", "/nix/store/2"),
		pkg("zsh", "zsh", "/nix/store/3"),
	))

	got := ranked(t, r, "zsh")
	require.Len(t, got, 3)
	assert.Equal(t, "zsh", got[0].Attribute)
	assert.Equal(t, "zsh-completions", got[1].Attribute)
	assert.Equal(t, "oh-my-zsh", got[2].Attribute)
}

func TestRanked_CaseInsensitive(t *testing.T) {
	r := openIndex(t, buildIndex(t,
		pkg("zsh", "zsh", "/nix/store/3"),
		pkg("zsh-completions", "zsh-completions", "/nix/store/1"),
	))

	upper := ranked(t, r, "Zsh")
	lower := ranked(t, r, "zsh")
	require.Len(t, upper, 2)
	assert.Equal(t, lower, upper)
}

func TestRanked_StopsWhenVisitReturnsFalse(t *testing.T) {
	r := openIndex(t, buildIndex(t,
		pkg("a", "a", "/nix/store/a"),
		pkg("b", "b", "/nix/store/b"),
		pkg("c", "c", "/nix/store/c"),
	))

	var seen int
	require.NoError(t, r.Ranked("x", func(Package) bool {
		seen++
		return seen < 2
	}))
	assert.Equal(t, 2, seen)
}

func TestRanked_NullNameScoresAsNoMatch(t *testing.T) {
	r := openIndex(t, buildIndex(t, Package{Attribute: "anon", StorePath: Str("/nix/store/anon")}))

	got := ranked(t, r, "anon")
	require.Len(t, got, 1)
	assert.Equal(t, fuzzy.NoMatch, *got[0].Score)
}

func TestBuild_DuplicateAttributeAbortsTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	w, err := Create(path, nil)
	require.NoError(t, err)

	err = w.Build([]Package{
		pkg("a", "a", "/nix/store/a"),
		pkg("b", "b", "/nix/store/b"),
		pkg("a", "again", "/nix/store/a2"),
	}, nil)
	require.ErrorIs(t, err, ErrRowInsert)
	assert.Contains(t, err.Error(), `"a"`)
	require.NoError(t, w.Close())

	r := openIndex(t, path)
	n, err := r.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := r.Exact("a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBuild_WritesMeta(t *testing.T) {
	r := openIndex(t, buildIndex(t, pkg("a", "a", "/nix/store/a")))

	src, err := r.Meta(MetaSource)
	require.NoError(t, err)
	assert.Equal(t, "test", src)

	v, err := MetaInt(r, MetaSchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	missing, err := r.Meta("nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestCreate_FailsWhenFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, err := Create(path, nil)
	require.ErrorIs(t, err, ErrIndexCreation)
	require.ErrorIs(t, err, os.ErrExist)
}

func TestRemove_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	require.NoError(t, Remove(path))

	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, Remove(path))
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemove_OtherFailuresAreFatal(t *testing.T) {
	// Removing a non-empty directory fails with something other than ErrNotExist.
	path := filepath.Join(t.TempDir(), "index.sqlite")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	err := Remove(path)
	require.ErrorIs(t, err, ErrIndexCreation)
}

func TestOpenReadOnly_Missing(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "nope.sqlite"))
	require.ErrorIs(t, err, ErrIndexNotFound)
}

func TestOpenReadOnly_NotAnIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.sqlite")
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE unrelated (x TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenReadOnly(path)
	require.ErrorIs(t, err, ErrQuery)
}

func TestOpenReadOnly_RejectsWrites(t *testing.T) {
	r := openIndex(t, buildIndex(t, pkg("a", "a", "/nix/store/a")))

	_, err := r.db.Exec("DELETE FROM packages")
	require.Error(t, err)
}

func TestOpenReadOnly_ConcurrentReaders(t *testing.T) {
	path := buildIndex(t, pkg("a", "a", "/nix/store/a"))
	r1 := openIndex(t, path)
	r2 := openIndex(t, path)

	a, err := r1.Exact("a")
	require.NoError(t, err)
	b, err := r2.Exact("a")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRanked_MalformedRowIsDecodeError(t *testing.T) {
	// An index written by some other tool with a looser schema.
	path := filepath.Join(t.TempDir(), "loose.sqlite")
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE packages (attribute TEXT, store_path TEXT, name TEXT, version TEXT, description TEXT, long_description TEXT);
		CREATE TABLE homepages (attribute TEXT, url TEXT);
		INSERT INTO packages (attribute, store_path, name) VALUES (NULL, '/nix/store/x', 'x');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r := openIndex(t, path)
	err = r.Ranked("x", func(Package) bool { return true })
	require.ErrorIs(t, err, ErrRowDecode)
}

func TestReader_PackagesTableOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.sqlite")
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE packages (attribute TEXT PRIMARY KEY NOT NULL, store_path TEXT, name TEXT, version TEXT, description TEXT, long_description TEXT);
		INSERT INTO packages (attribute, store_path, name, version) VALUES ('zsh', '/nix/store/abc-zsh-5.9', 'zsh', '5.9');
		INSERT INTO packages (attribute, store_path, name) VALUES ('stdenv', NULL, 'stdenv');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r := openIndex(t, path)

	got, err := r.Exact("zsh")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/nix/store/abc-zsh-5.9", Deref(got.StorePath))
	assert.Equal(t, "5.9", Deref(got.Version))
	assert.Nil(t, got.Homepage)

	got, err = r.Exact("stdenv")
	require.NoError(t, err)
	assert.Nil(t, got)

	out := ranked(t, r, "zsh")
	require.Len(t, out, 1)
	assert.Equal(t, "zsh", out[0].Attribute)
	assert.Equal(t, fuzzy.MaxScore, *out[0].Score)

	source, err := r.Meta(MetaSource)
	require.NoError(t, err)
	assert.Empty(t, source)

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenReadOnly_NoPackagesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.sqlite")
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE unrelated (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenReadOnly(path)
	require.ErrorIs(t, err, ErrQuery)
}
