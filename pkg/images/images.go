// Package images decides where a product's image lives on disk and whether
// it still needs to be downloaded.
//
// Image paths are relative to the site root and always use forward slashes,
// since the catalog file is read by a web page.
package images

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/constants"
)

// DefaultExtension is used when the source URL gives no recognizable hint.
const DefaultExtension = ".jpg"

// fallbackBase names images for products whose name has no usable characters.
const fallbackBase = "image"

// recognized extensions, checked in order against the lowercased source URL.
var recognized = []string{".png", ".webp", ".gif"}

// BaseName derives a file-name stem from a product name: characters other than
// letters, digits, underscores, whitespace, and hyphens are dropped, the result
// is trimmed, and spaces become underscores.
func BaseName(name string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case r == '_' || r == '-':
			return r
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r):
			return r
		case unicode.IsSpace(r):
			return r
		}
		return -1
	}, name)
	return strings.ReplaceAll(strings.TrimSpace(kept), " ", "_")
}

// Extension guesses the file extension from a source URL by substring.
// The URL query often hides the real extension, so the check is deliberately loose.
func Extension(sourceURL string) string {
	lower := strings.ToLower(sourceURL)
	for _, ext := range recognized {
		if strings.Contains(lower, ext) {
			return ext
		}
	}
	return DefaultExtension
}

// Assets reports whether a site-relative image path exists.
type Assets interface {
	Exists(path string) bool
}

// AssetsFunc adapts a function to Assets.
type AssetsFunc func(path string) bool

// Exists implements Assets.
func (f AssetsFunc) Exists(path string) bool { return f(path) }

// DirAssets checks image paths against a site root directory.
type DirAssets struct {
	Root string
}

// Exists implements Assets. Only regular files count.
func (d DirAssets) Exists(rel string) bool {
	if rel == "" {
		return false
	}
	info, err := os.Stat(d.Abs(rel))
	return err == nil && info.Mode().IsRegular()
}

// Abs returns the filesystem path for a site-relative path.
func (d DirAssets) Abs(rel string) string {
	return filepath.Join(d.Root, filepath.FromSlash(rel))
}

// None is an Assets with no files; every image is treated as missing.
var None = AssetsFunc(func(string) bool { return false })

// Job is a pending image download.
type Job struct {
	SourceURL string `json:"source_url" yaml:"source_url"`
	DestPath  string `json:"dest_path" yaml:"dest_path"`
	Product   string `json:"product" yaml:"product"`
	Category  string `json:"category" yaml:"category"`
}

// Resolution is the outcome of resolving a product's image.
type Resolution struct {
	Path string
	Job  *Job
	// NeedsAttention is set when there is no source to download from and the
	// image must be supplied by hand.
	NeedsAttention bool
}

// Policy derives image paths under a directory.
type Policy struct {
	Dir string
}

// DefaultPolicy stores images under "images".
func DefaultPolicy() Policy {
	return Policy{Dir: constants.DefaultImagesDir}
}

// Path returns the deterministic image path for a product name and source URL.
func (p Policy) Path(name, sourceURL string) string {
	base := BaseName(name)
	if base == "" {
		base = fallbackBase
	}
	return path.Join(p.Dir, base+Extension(sourceURL))
}

// Resolve decides the image path for a product.
//
// An existing image that is present on disk is never replaced. Otherwise the
// path is derived from the name; a download job is returned when a source URL
// is known and the derived file does not exist yet.
func (p Policy) Resolve(product catalog.Product, assets Assets) Resolution {
	if assets == nil {
		assets = None
	}
	if product.Image != "" && assets.Exists(product.Image) {
		return Resolution{Path: product.Image}
	}

	dest := p.Path(product.Name, product.ImageSourceURL)
	switch {
	case product.ImageSourceURL == "":
		return Resolution{Path: dest, NeedsAttention: !assets.Exists(dest)}
	case assets.Exists(dest):
		return Resolution{Path: dest}
	}
	return Resolution{
		Path: dest,
		Job:  &Job{SourceURL: product.ImageSourceURL, DestPath: dest, Product: product.Name},
	}
}
