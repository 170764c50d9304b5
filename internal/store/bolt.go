package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/models"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// snapshotKey is the single key holding a branch's serialized catalog inside
// its bucket.
var snapshotKey = []byte("catalog")

// BoltStore keeps every branch snapshot in one bbolt database file: one
// bucket per branch, the whole catalog JSON under snapshotKey. Snapshot
// semantics match FileStore, each save replaces the branch's value wholesale.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database file, creating its directory
// if needed.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating catalog db dir: %v", utils.ErrStorage, err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: opening catalog db: %v", utils.ErrStorage, err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load reads the branch snapshot. Missing buckets, failed reads and corrupt
// values all yield an empty catalog, matching FileStore's read behavior.
func (s *BoltStore) Load(branch string) ([]models.Product, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(branch))
		if b == nil {
			return nil
		}
		if v := b.Get(snapshotKey); v != nil {
			// Values are only valid inside the transaction.
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("sucursal", branch).Msg("Catalog read failed, serving empty catalog")
		return []models.Product{}, nil
	}
	if len(raw) == 0 {
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

// Save replaces the branch's snapshot in a single write transaction.
func (s *BoltStore) Save(branch string, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("%w: encoding catalog: %v", utils.ErrStorage, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(branch))
		if err != nil {
			return err
		}
		return b.Put(snapshotKey, raw)
	})
	if err != nil {
		return fmt.Errorf("%w: writing catalog: %v", utils.ErrStorage, err)
	}
	return nil
}
