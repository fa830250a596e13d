package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/r3labs/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputTo(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	dir := t.TempDir()

	require.NoError(os.MkdirAll(filepath.Join(dir, "packages/hand"), 0755))
	require.NoError(os.WriteFile(filepath.Join(dir, "packages/hand/package.json"), []byte(`{"name":"hand"}`), 0644))

	files := []File{
		&TextFile{FPath: "b/b.txt", Lines: []string{"b"}},
		&RawFile{FPath: "a.txt", Content: []byte("a\n")},
		&JSONFile{FPath: "packages/hand/package.json", Obj: map[string]any{"__pdk__": true}, OwnershipKey: "__pdk__"},
		&JSONFile{FPath: "packages/gen/package.json", Obj: map[string]any{"__pdk__": true}, OwnershipKey: "__pdk__"},
	}

	result, err := OutputTo(context.Background(), files, dir)
	require.NoError(err)
	assert.Equal([]string{"a.txt", "b/b.txt", "packages/gen/package.json"}, result.Written)
	assert.Empty(result.Unchanged)
	assert.Equal([]string{"packages/hand/package.json"}, result.Skipped)

	hand, err := os.ReadFile(filepath.Join(dir, "packages/hand/package.json"))
	require.NoError(err)
	assert.Equal(`{"name":"hand"}`, string(hand))

	b, err := os.ReadFile(filepath.Join(dir, "b/b.txt"))
	require.NoError(err)
	assert.Equal("b\n", string(b))

	// second run leaves everything in place
	result, err = OutputTo(context.Background(), files, dir)
	require.NoError(err)
	assert.Empty(result.Written)
	assert.Equal([]string{"a.txt", "b/b.txt", "packages/gen/package.json"}, result.Unchanged)
	assert.Equal([]string{"packages/hand/package.json"}, result.Skipped)
}

func TestOutputTo_DuplicatePaths(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	_, err := OutputTo(context.Background(), []File{
		&RawFile{FPath: "a.txt"},
		&RawFile{FPath: "./a.txt"},
	}, dir)
	assert.Error(err)

	_, statErr := os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(os.IsNotExist(statErr), "nothing is written when paths collide")
}

func TestFingerprint(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	a := &RawFile{FPath: "a", Content: []byte("1")}
	b := &RawFile{FPath: "b", Content: []byte("2")}

	f1, err := Fingerprint([]File{a, b})
	require.NoError(err)
	f2, err := Fingerprint([]File{b, a})
	require.NoError(err)
	assert.Equal(f1, f2, "order independent")
	assert.Len(f1, 64)

	f3, err := Fingerprint([]File{a, &RawFile{FPath: "b", Content: []byte("3")}})
	require.NoError(err)
	assert.NotEqual(f1, f3)

	// moving content between paths changes the digest
	f4, err := Fingerprint([]File{&RawFile{FPath: "a", Content: []byte("2")}, &RawFile{FPath: "b", Content: []byte("1")}})
	require.NoError(err)
	assert.NotEqual(f1, f4)
}

func TestDiff(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	dir := t.TempDir()

	require.NoError(os.WriteFile(filepath.Join(dir, "nx.json"), []byte(`{"npmScope":"old"}`+"\n"), 0644))
	require.NoError(os.WriteFile(filepath.Join(dir, "same.txt"), []byte("same\n"), 0644))
	require.NoError(os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"hand"}`), 0644))

	drifts, err := Diff([]File{
		&JSONFile{FPath: "nx.json", Obj: map[string]any{"npmScope": "monorepo"}},
		&TextFile{FPath: "same.txt", Lines: []string{"same"}},
		&TextFile{FPath: "new.txt", Lines: []string{"new"}},
		&JSONFile{FPath: "package.json", Obj: map[string]any{}, OwnershipKey: "__pdk__"},
	}, dir)
	require.NoError(err)
	require.Len(drifts, 2)

	assert.Equal("new.txt", drifts[0].Path)
	assert.Equal(DriftCreate, drifts[0].Status)

	assert.Equal("nx.json", drifts[1].Path)
	assert.Equal(DriftUpdate, drifts[1].Status)
	require.Len(drifts[1].Changes, 1)
	assert.Equal(diff.UPDATE, drifts[1].Changes[0].Type)
	assert.Equal([]string{"npmScope"}, drifts[1].Changes[0].Path)
	assert.Equal("old", drifts[1].Changes[0].From)
	assert.Equal("monorepo", drifts[1].Changes[0].To)
}
