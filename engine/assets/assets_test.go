package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-playground/engine/assets/loaders"
	"github.com/spaghettifunk/anima-playground/engine/core"
	"github.com/spaghettifunk/anima-playground/engine/renderer/metadata"
)

const cubeOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//1 3//1\n"

func newAssetsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	require.NoError(t, os.MkdirAll(models, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(models, "cube.obj"), []byte(cubeOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(models, "cube.mtl"), []byte("newmtl x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(models, "readme.txt"), []byte("hi"), 0o644))
	return dir
}

func newManager(t *testing.T, dir string, opts ...loaders.ImportOption) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir, opts...))
	t.Cleanup(func() { _ = am.Shutdown() })
	return am
}

func waitEvent(t *testing.T, am *AssetManager, name string, removed bool) AssetEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-am.Events():
			if ev.Name == name && ev.Removed == removed {
				return ev
			}
		case <-timeout:
			t.Fatalf("no event for %q (removed=%v)", name, removed)
		}
	}
}

func TestAssetManagerIndexesModels(t *testing.T) {
	dir := newAssetsDir(t)
	am := newManager(t, dir)

	infos := am.Assets()
	require.Len(t, infos, 2)
	assert.Equal(t, filepath.Join(dir, "models", "cube.mtl"), infos[0].Path)
	assert.Equal(t, metadata.ResourceTypeMaterial, infos[0].Type)
	assert.Equal(t, filepath.Join(dir, "models", "cube.obj"), infos[1].Path)
	assert.Equal(t, metadata.ResourceTypeModel, infos[1].Type)
}

func TestAssetManagerLoadAsset(t *testing.T) {
	am := newManager(t, newAssetsDir(t))

	res, err := am.LoadAsset("cube", metadata.ResourceTypeModel, map[string]string{"name": "cube"})
	require.NoError(t, err)
	assert.Equal(t, "cube", res.Name)
	mr := res.Data.(*metadata.MeshRecord)
	assert.Equal(t, []uint32{0, 1, 2}, mr.Indices)

	require.NoError(t, am.UnloadAsset(res))
	assert.Nil(t, res.Data)

	_, err = am.LoadAsset("sphere", metadata.ResourceTypeModel, nil)
	assert.ErrorIs(t, err, core.ErrFileUnreadable)

	// indexed, but nothing loads materials
	_, err = am.LoadAsset("cube", metadata.ResourceTypeMaterial, nil)
	assert.Error(t, err)

	_, err = am.LoadAsset("cube", metadata.ResourceTypeBinary, nil)
	assert.Error(t, err)
}

func TestAssetManagerPassesImportOptions(t *testing.T) {
	dir := newAssetsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "bad.obj"), []byte("v 1 x 2 3\n"), 0o644))

	lenient := newManager(t, dir)
	_, err := lenient.LoadAsset("bad", metadata.ResourceTypeModel, nil)
	require.NoError(t, err)

	strict := newManager(t, dir, loaders.WithStrictPositions(true))
	_, err = strict.LoadAsset("bad", metadata.ResourceTypeModel, nil)
	assert.ErrorIs(t, err, core.ErrMalformedPositionLine)
}

func TestAssetManagerWatchesChanges(t *testing.T) {
	dir := newAssetsDir(t)
	am := newManager(t, dir)

	// rename a finished file into place so the model is never seen half written
	staged := filepath.Join(dir, "tri.staged")
	require.NoError(t, os.WriteFile(staged, []byte(cubeOBJ), 0o644))
	path := filepath.Join(dir, "models", "tri.obj")
	require.NoError(t, os.Rename(staged, path))
	ev := waitEvent(t, am, "tri", false)
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, metadata.ResourceTypeModel, ev.Type)

	_, err := am.LoadAsset("tri", metadata.ResourceTypeModel, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	waitEvent(t, am, "tri", true)
	_, err = am.LoadAsset("tri", metadata.ResourceTypeModel, nil)
	assert.Error(t, err)
}

func TestAssetManagerInitializeErrors(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	assert.Error(t, am.Initialize(filepath.Join(t.TempDir(), "missing")))

	file := filepath.Join(t.TempDir(), "file.obj")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, am.Initialize(file))

	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
	_, open := <-am.Events()
	assert.False(t, open)
}

func TestAssetManagerShutdownClosesEvents(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(newAssetsDir(t)))

	require.NoError(t, am.Shutdown())
	_, open := <-am.Events()
	assert.False(t, open)
	_, open = <-am.Errors()
	assert.False(t, open)
}

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, metadata.ResourceTypeModel, determineAssetType("a/b/case.obj"))
	assert.Equal(t, metadata.ResourceTypeModel, determineAssetType("CASE.OBJ"))
	assert.Equal(t, metadata.ResourceTypeMaterial, determineAssetType("case.mtl"))
	assert.Equal(t, metadata.ResourceTypeNone, determineAssetType("case.png"))
	assert.Equal(t, "case", assetName("/x/models/case.obj"))
}
