// Package content defines the contract through which the transaction engine
// obtains verified package file contents. Fetching over the network and
// signature checking live behind the Provider and Verifier interfaces; the
// engine only ever sees local, already-verified content references.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"napm/pkg/database"
)

// ErrNotCached is returned when a package's content is not available locally.
var ErrNotCached = errors.New("package content not present in cache")

// Ref points at staged content for a single manifest path. The path is on
// the local filesystem and its contents have already been verified.
type Ref struct {
	Path     string
	Checksum uint64
	Size     int64
}

// Tree maps manifest paths to their content references for one package.
type Tree struct {
	refs map[string]Ref
}

// Ref returns the content reference for a manifest path.
func (t Tree) Ref(path string) (Ref, bool) {
	r, ok := t.refs[path]
	return r, ok
}

// Provider resolves a package record to its verified content tree.
type Provider interface {
	Fetch(ctx context.Context, rec *database.PackageRecord) (Tree, error)
}

// Verifier checks content authenticity. It is an external collaborator;
// the engine treats it as a yes/no oracle.
type Verifier interface {
	Verify(data, sig []byte) bool
}

// DirProvider serves package contents from an extracted cache directory laid
// out as <dir>/<name>-<version>/<manifest paths>. The fetch collaborator is
// responsible for populating it. When a Verifier is set, files carrying a
// detached .sig are authenticated before their refs are handed out.
type DirProvider struct {
	Dir      string
	Verifier Verifier
}

// Fetch locates the package's content tree in the cache and checks every
// manifest file against its recorded checksum.
func (p DirProvider) Fetch(ctx context.Context, rec *database.PackageRecord) (Tree, error) {
	root := filepath.Join(p.Dir, rec.Name+"-"+rec.Version)

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return Tree{}, fmt.Errorf("%s-%s: %w", rec.Name, rec.Version, ErrNotCached)
		}
		return Tree{}, err
	}

	refs := make(map[string]Ref, len(rec.Files))
	for _, f := range rec.Files {
		if f.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Tree{}, err
		}

		src := filepath.Join(root, filepath.FromSlash(f.Path))
		sum, size, err := hashFile(src)
		if err != nil {
			return Tree{}, fmt.Errorf("content for %s/%s: %w", rec.Name, f.Path, err)
		}
		if f.Checksum != 0 && sum != f.Checksum {
			return Tree{}, fmt.Errorf("checksum mismatch for %s/%s", rec.Name, f.Path)
		}
		if err := p.verify(src); err != nil {
			return Tree{}, fmt.Errorf("signature check for %s/%s: %w", rec.Name, f.Path, err)
		}

		refs[f.Path] = Ref{Path: src, Checksum: sum, Size: size}
	}

	return Tree{refs: refs}, nil
}

// verify authenticates src against its detached signature file, if the
// provider has a verifier and a signature is present.
func (p DirProvider) verify(src string) error {
	if p.Verifier == nil {
		return nil
	}

	sig, err := os.ReadFile(src + ".sig")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if !p.Verifier.Verify(data, sig) {
		return errors.New("invalid signature")
	}
	return nil
}

// NewTree builds a tree from explicit references. Intended for tests and
// in-memory providers.
func NewTree(refs map[string]Ref) Tree {
	return Tree{refs: refs}
}

// HashReader computes the xxhash64 checksum of a stream.
func HashReader(r io.Reader) (uint64, int64, error) {
	h := xxhash.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return 0, 0, err
	}
	return h.Sum64(), n, nil
}

func hashFile(path string) (uint64, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	return HashReader(f)
}
