// Package workspace owns the on-disk layout shared by the registry and the
// model scripts: stored models, datasets, environments, and scratch files.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// File names inside a model directory.
const (
	ModelFile       = "model"
	ManifestFile    = "requirements.txt"
	SessionInfoFile = "sessionInfo.rds"
)

// ErrInvalidName indicates a model name that cannot be used as a directory.
var ErrInvalidName = errors.New("invalid model name")

// Layout resolves workspace paths below Root.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root, made absolute so scripts launched
// from other working directories resolve the same paths.
func New(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve workspace root: %w", err)
	}
	return Layout{Root: abs}, nil
}

// Writable verifies that scratch files can be created, which every upload,
// prediction, and audit depends on.
func (l Layout) Writable() error {
	f, err := os.CreateTemp(l.TmpDir(), ".probe-*")
	if err != nil {
		return fmt.Errorf("workspace not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Init creates the fixed directory tree.
func (l Layout) Init() error {
	for _, dir := range []string{l.ModelsDir(), l.DatasetsDir(), l.EnvsRoot(), l.TmpDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (l Layout) ModelsDir() string   { return filepath.Join(l.Root, "models") }
func (l Layout) DatasetsDir() string { return filepath.Join(l.Root, "datasets") }
func (l Layout) EnvsRoot() string    { return filepath.Join(l.Root, "envs") }
func (l Layout) TmpDir() string      { return filepath.Join(l.Root, "tmp") }

// ModelDir is the directory holding one model's artifact and manifest.
func (l Layout) ModelDir(name string) string {
	return filepath.Join(l.ModelsDir(), name)
}

// ModelPath joins a file name from the model directory.
func (l Layout) ModelPath(name, file string) string {
	return filepath.Join(l.ModelDir(name), file)
}

// DatasetPath is the content-addressed location of a dataset.
func (l Layout) DatasetPath(hash string) string {
	return filepath.Join(l.DatasetsDir(), hash)
}

// EnvsDir is the per-language environment namespace.
func (l Layout) EnvsDir(language string) string {
	return filepath.Join(l.EnvsRoot(), language)
}

// TmpPath joins a file name from the scratch directory.
func (l Layout) TmpPath(file string) string {
	return filepath.Join(l.TmpDir(), file)
}

// ValidateName rejects model names that would escape the models directory.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

var sequence atomic.Uint64

// Stamp returns a process-unique key for scratch files, ordered by time.
func Stamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10) + "-" + strconv.FormatUint(sequence.Add(1), 10)
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return writeAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFileAtomic is WriteFileAtomic for a stream. Nothing is renamed into
// place when reading r fails.
func CopyFileAtomic(path string, r io.Reader, perm os.FileMode) (int64, error) {
	var n int64
	err := writeAtomic(path, perm, func(w io.Writer) error {
		var err error
		n, err = io.Copy(w, r)
		return err
	})
	return n, err
}

func writeAtomic(path string, perm os.FileMode, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
