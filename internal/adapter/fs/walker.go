package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker collects importable files under a root: files matching the include
// globs, not matching the exclude globs, and not belonging to a store. The
// store's own cache directory and its on-disk artifacts are never imported,
// so pointing `import` at a directory that holds the store cannot feed the
// dataset back into itself.
type Walker struct {
	includes []string
	excludes []string
	skipDirs map[string]bool
}

// NewWalker builds a walker. skipDirs are directories (the store cache dir,
// typically) that are never descended into; relative paths are resolved
// against the working directory.
func NewWalker(includes, excludes []string, skipDirs ...string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	skip := make(map[string]bool, len(skipDirs))
	for _, dir := range skipDirs {
		if abs, err := filepath.Abs(dir); err == nil {
			skip[abs] = true
		}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
		skipDirs: skip,
	}
}

type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
}

func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.skipDirs[path] {
				return filepath.SkipDir
			}
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if isStoreArtifact(info.Name()) {
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{
				Path:    path,
				RelPath: relPath,
				Size:    info.Size(),
			})
		}

		return nil
	})

	return files, err
}

// isStoreArtifact recognises the files a store writes: the dataset and
// testcase snapshots of either backend, and an in-flight temp file.
func isStoreArtifact(name string) bool {
	if strings.HasSuffix(name, ".tmp") {
		return true
	}
	for _, suffix := range []string{"_dataset.json", "_testcase.json", "_dataset.db", "_testcase.db"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
