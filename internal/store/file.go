package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/models"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// FileStore keeps one JSON snapshot per branch at <dir>/<branch>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates the snapshot directory if it does not exist yet.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data dir: %v", utils.ErrStorage, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(branch string) string {
	return filepath.Join(s.dir, branch+".json")
}

// Load reads the branch snapshot. A missing, unreadable or corrupt snapshot
// yields an empty catalog instead of an error; corruption is logged.
func (s *FileStore) Load(branch string) ([]models.Product, error) {
	raw, err := os.ReadFile(s.path(branch))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("sucursal", branch).Msg("Catalog snapshot unreadable, serving empty catalog")
		}
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		log.Warn().Err(err).Str("sucursal", branch).Msg("Catalog snapshot corrupt, serving empty catalog")
		return []models.Product{}, nil
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Save replaces the whole snapshot atomically: the JSON is written to a temp
// file in the same directory and renamed over the previous snapshot, so a
// reader never observes a partial write.
func (s *FileStore) Save(branch string, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	raw, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding catalog: %v", utils.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(s.dir, branch+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp snapshot: %v", utils.ErrStorage, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing snapshot: %v", utils.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing snapshot: %v", utils.ErrStorage, err)
	}
	if err := os.Rename(tmpName, s.path(branch)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing snapshot: %v", utils.ErrStorage, err)
	}
	return nil
}
