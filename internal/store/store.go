// Package store persists per-branch catalog snapshots. Every save replaces
// the branch's whole snapshot; there is no incremental log.
package store

import "github.com/luchoelporo900-design/optica-yolanda2/internal/models"

// Store loads and saves the full product list of one branch as a single
// snapshot. Load degrades to an empty catalog when no snapshot exists or the
// stored content is unreadable; Save surfaces storage failures.
type Store interface {
	Load(branch string) ([]models.Product, error)
	Save(branch string, products []models.Product) error
}

// Ensure both backends implement the contract.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*BoltStore)(nil)
)
