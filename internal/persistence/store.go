package persistence

import (
	"os"
	"path/filepath"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
)

// Load reads the catalog at path. An empty format is detected from the
// extension.
//
// A missing file yields an empty catalog together with an error matching
// errors.ErrNotFound. Unreadable content yields an empty catalog and a
// *errors.ParseError. Callers may continue with the empty catalog in both
// cases.
func Load(path string, format Format) (*catalog.Catalog, error) {
	format, err := resolveFormat(path, format)
	if err != nil {
		return catalog.New(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog.New(), errors.NewNotFoundError("catalog file", path)
		}
		return catalog.New(), errors.WrapIO("read", path, err)
	}

	cat, err := Decode(data, format)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return catalog.New(), err
	}
	return cat, nil
}

// Save rewrites the catalog at path. The content goes to a temp file in the
// same directory first and is renamed over the target, so readers never see
// a partial file.
func Save(path string, cat *catalog.Catalog, format Format) error {
	format, err := resolveFormat(path, format)
	if err != nil {
		return err
	}
	data, err := Encode(cat, format)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to path through a temp file and rename,
// creating the parent directory when needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("close", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("chmod", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("rename", path, err)
	}
	return nil
}
