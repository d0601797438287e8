// Package assets indexes and validates the catalog image library that
// lives under <assets dir>/images and is served at /assets/images.
package assets

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// WebPrefix is the URL prefix static assets are served under.
const WebPrefix = "/assets"

// ErrNoImageDir is returned when the images directory is missing.
var ErrNoImageDir = errors.New("images directory not found")

// ErrInvalidImage is returned by Resolve for anything that is not an
// existing image file inside the library.
var ErrInvalidImage = errors.New("not an image in the library")

var imageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// Image is one selectable catalog picture.
type Image struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Library is the image tree rooted at Dir/images.
type Library struct {
	Dir string // the static assets root, e.g. "assets"
}

func (l Library) imagesDir() string { return filepath.Join(l.Dir, "images") }

// Scan walks the image tree and returns every image sorted by web path.
func (l Library) Scan() ([]Image, error) {
	root := l.imagesDir()
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, ErrNoImageDir
	}
	images := []Image{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExt[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		images = append(images, Image{
			Path:     path.Join(WebPrefix, "images", filepath.ToSlash(rel)),
			Filename: d.Name(),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Path < images[j].Path })
	return images, nil
}

// Resolve checks that webPath (as stored in equipment.image_url) names an
// existing regular file inside the image tree and returns its file path.
// Symlinks are resolved before the containment check.
func (l Library) Resolve(webPath string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(webPath))
	if err != nil || u.Path == "" {
		return "", ErrInvalidImage
	}
	rel := strings.TrimPrefix(u.Path, WebPrefix+"/")
	if rel == u.Path {
		return "", ErrInvalidImage
	}
	root, err := filepath.EvalSymlinks(l.imagesDir())
	if err != nil {
		return "", ErrInvalidImage
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return "", ErrInvalidImage
	}
	target, err := filepath.EvalSymlinks(filepath.Join(l.Dir, filepath.FromSlash(rel)))
	if err != nil {
		return "", ErrInvalidImage
	}
	target, err = filepath.Abs(target)
	if err != nil {
		return "", ErrInvalidImage
	}
	if !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", ErrInvalidImage
	}
	st, err := os.Stat(target)
	if err != nil || !st.Mode().IsRegular() {
		return "", ErrInvalidImage
	}
	return target, nil
}
