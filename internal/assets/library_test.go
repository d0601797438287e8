package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibrary(t *testing.T) Library {
	t.Helper()
	dir := t.TempDir()
	for name, size := range map[string]int{
		"images/Body/Sony/a7iv.jpg": 3,
		"images/Body/Canon/r6.PNG":  5,
		"images/Lens/sigma.webp":    2,
		"images/readme.txt":         1,
		"css/site.css":              1,
		"secret.jpg":                4,
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, make([]byte, size), 0o644))
	}
	return Library{Dir: dir}
}

func TestScan(t *testing.T) {
	lib := newLibrary(t)
	images, err := lib.Scan()
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, Image{Path: "/assets/images/Body/Canon/r6.PNG", Filename: "r6.PNG", Size: 5}, images[0])
	assert.Equal(t, "/assets/images/Body/Sony/a7iv.jpg", images[1].Path)
	assert.Equal(t, "/assets/images/Lens/sigma.webp", images[2].Path)
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Library{Dir: filepath.Join(t.TempDir(), "nope")}.Scan()
	assert.ErrorIs(t, err, ErrNoImageDir)
}

func TestResolve(t *testing.T) {
	lib := newLibrary(t)

	p, err := lib.Resolve("/assets/images/Body/Sony/a7iv.jpg")
	require.NoError(t, err)
	assert.FileExists(t, p)

	_, err = lib.Resolve("/assets/images/Body/Sony/a7iv.jpg?v=2")
	assert.NoError(t, err, "query strings are ignored")

	for _, bad := range []string{
		"",
		"/assets/images/missing.jpg",
		"/assets/images/Body",
		"/assets/images/../secret.jpg",
		"/assets/css/site.css",
		"/etc/passwd",
		"assets/images/Body/Sony/a7iv.jpg",
	} {
		_, err := lib.Resolve(bad)
		assert.ErrorIs(t, err, ErrInvalidImage, bad)
	}
}
