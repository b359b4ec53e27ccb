package storage

import (
	"os"
	"path/filepath"
	"testing"

	"Go_FileStore/config"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths() Paths {
	return NewPaths(config.FileConfig{
		SaveFolder: filepath.Join("data", "files") + string(os.PathSeparator),
		TempFolder: filepath.Join("data", "temps"),
		ZipFolder:  filepath.Join("data", "zips"),
	})
}

func TestCompose(t *testing.T) {
	p := testPaths()
	sep := string(os.PathSeparator)

	assert.Equal(t, filepath.Join("data", "files"), p.Compose(SavePath, "", ""))
	assert.Equal(t, filepath.Join("data", "temps", "f1"), p.Compose(TempPath, "f1", ""))
	assert.Equal(t, filepath.Join("data", "files", "f1", "n1"), p.Compose(SavePath, "f1", "n1"))
	assert.Equal(t, filepath.Join("data", "zips")+sep+"a.zip", p.Compose(ZipPath, "", "a.zip"))
}

func TestRootDefaultsToSave(t *testing.T) {
	p := testPaths()
	assert.Equal(t, p.Root(SavePath), p.Root(PathType(9)))
	assert.Equal(t, "PathType(9)", PathType(9).String())
	assert.Equal(t, "temp", TempPath.String())
}

func TestEnsureCreatesRoots(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := testPaths()
	require.NoError(t, p.Ensure(fs))
	for _, kind := range []PathType{SavePath, TempPath, ZipPath} {
		ok, err := afero.DirExists(fs, p.Root(kind))
		require.NoError(t, err)
		assert.True(t, ok, kind.String())
	}
}
