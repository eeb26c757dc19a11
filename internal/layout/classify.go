// Package layout knows how object files are arranged in the working tree:
// which folder holds which kind of object, and how a filename is resolved.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"deployable-sql/internal/schema"
)

var (
	ErrIllegalPath  = errors.New("illegal path")
	ErrUnknownKind  = errors.New("unknown object kind")
	ErrFileNotFound = errors.New("file not found")
)

// vcsDir is never searched during bare filename lookup.
const vcsDir = ".git"

// Resolved is the outcome of classifying a name or path.
type Resolved struct {
	Kind schema.ObjectKind
	// Rel is folder/filename relative to the root of the working tree.
	Rel string
	// Path is Rel joined onto the root.
	Path string
}

// Classifier resolves filenames and folder/filename paths inside one working tree.
type Classifier struct {
	Root string
}

func NewClassifier(root string) *Classifier {
	if root == "" {
		root = "."
	}
	return &Classifier{Root: root}
}

// Classify determines the object kind of nameOrPath.
//
// A value containing a path separator must be exactly folder/filename
// (after trimming a leading ./); the folder decides the kind. A bare
// filename is looked up recursively below the root and the first match's
// parent directory decides the kind.
func (c *Classifier) Classify(nameOrPath string) (Resolved, error) {
	p := filepath.ToSlash(nameOrPath)
	if filepath.IsAbs(nameOrPath) {
		rel, err := c.relToRoot(nameOrPath)
		if err != nil {
			return Resolved{}, err
		}
		p = rel
	}
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}

	if !strings.Contains(p, "/") {
		if p == "" || p == "." {
			return Resolved{}, fmt.Errorf("%w: %q", ErrIllegalPath, nameOrPath)
		}
		return c.find(p)
	}

	segs := strings.Split(p, "/")
	if len(segs) != 2 || segs[0] == "" || segs[1] == "" {
		return Resolved{}, fmt.Errorf("%w: %q must be folder/filename", ErrIllegalPath, nameOrPath)
	}
	return c.resolve(segs[0], segs[1])
}

func (c *Classifier) resolve(folder, file string) (Resolved, error) {
	k, ok := schema.KindForFolder(folder)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: folder %q", ErrUnknownKind, folder)
	}
	rel := folder + "/" + file
	return Resolved{
		Kind: k,
		Rel:  rel,
		Path: filepath.Join(c.Root, folder, file),
	}, nil
}

// find walks the tree in lexical order, so the first match is stable.
func (c *Classifier) find(name string) (Resolved, error) {
	var match string
	err := filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == vcsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name {
			match = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return Resolved{}, fmt.Errorf("failed to search for %q: %w", name, err)
	}
	if match == "" {
		return Resolved{}, fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}

	folder := filepath.Base(filepath.Dir(match))
	res, err := c.resolve(folder, name)
	if err != nil {
		return Resolved{}, err
	}
	// the match may sit deeper than the top level; keep its real location
	res.Path = match
	return res, nil
}

func (c *Classifier) relToRoot(path string) (string, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q is outside %s", ErrIllegalPath, path, root)
	}
	return filepath.ToSlash(rel), nil
}

// Extensions lists the file extensions synced for kind k.
func Extensions(k schema.ObjectKind) []string {
	if k == schema.KindJob {
		return []string{".yml", ".yaml"}
	}
	return []string{".sql"}
}

// Accepts reports whether a file named name belongs in a folder of kind k.
func Accepts(k schema.ObjectKind, name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions(k) {
		if ext == e {
			return true
		}
	}
	return false
}
