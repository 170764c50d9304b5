// Package assets stores uploaded product images under per-branch directories
// with generated, collision-free file names.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// PublicPrefix is the URL prefix under which stored assets are served. Asset
// references kept in product records always start with it.
const PublicPrefix = "/uploads/"

// defaultExt is used when an upload carries no usable extension.
const defaultExt = ".jpg"

// DeleteStatus reports the outcome of a best-effort asset deletion. Callers
// may log it but must never propagate it as a hard failure.
type DeleteStatus int

const (
	Deleted DeleteStatus = iota
	NotFound
	Failed
)

func (s DeleteStatus) String() string {
	switch s {
	case Deleted:
		return "deleted"
	case NotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// Manager writes, resolves and removes image files under a single root.
type Manager struct {
	root string
}

// New returns a Manager rooted at root, creating the directory if needed.
func New(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating uploads dir: %v", utils.ErrStorage, err)
	}
	return &Manager{root: root}, nil
}

// Store writes data under the branch's directory with a generated name and
// returns the public reference ("/uploads/<branch>/<name>"). The original
// file name contributes only its extension; it never becomes a path
// component.
func (m *Manager) Store(branch string, data []byte, originalName string) (string, error) {
	name, err := utils.NewAssetName(safeExt(originalName))
	if err != nil {
		return "", fmt.Errorf("%w: generating asset name: %v", utils.ErrStorage, err)
	}
	dir := filepath.Join(m.root, branch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating branch uploads dir: %v", utils.ErrStorage, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing asset: %v", utils.ErrStorage, err)
	}
	log.Debug().Str("sucursal", branch).Str("asset", name).Int("bytes", len(data)).Msg("Asset stored")
	return PublicPrefix + branch + "/" + name, nil
}

// Delete removes the referenced file. It never returns an error: a missing
// file must not block a catalog mutation from completing.
func (m *Manager) Delete(ref string) DeleteStatus {
	path, err := m.Resolve(ref)
	if err != nil {
		log.Debug().Str("ref", ref).Msg("Asset delete skipped, unresolvable reference")
		return Failed
	}
	err = os.Remove(path)
	switch {
	case err == nil:
		return Deleted
	case errors.Is(err, os.ErrNotExist):
		return NotFound
	default:
		log.Warn().Err(err).Str("ref", ref).Msg("Asset delete failed")
		return Failed
	}
}

// Resolve maps a public reference back to a filesystem path, rejecting
// references outside PublicPrefix and any path that escapes the uploads root.
func (m *Manager) Resolve(ref string) (string, error) {
	rel, ok := strings.CutPrefix(ref, PublicPrefix)
	if !ok || rel == "" {
		return "", fmt.Errorf("%w: asset reference must start with %s", utils.ErrValidation, PublicPrefix)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: asset reference escapes the uploads dir", utils.ErrValidation)
	}
	return filepath.Join(m.root, clean), nil
}

// Root returns the directory assets are stored under.
func (m *Manager) Root() string {
	return m.root
}

// safeExt extracts a plausible extension from the client file name, falling
// back to defaultExt. Only short, purely alphanumeric extensions pass.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || ext == "." || len(ext) > 10 {
		return defaultExt
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultExt
		}
	}
	return ext
}
