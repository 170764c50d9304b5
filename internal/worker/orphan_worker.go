package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/assets"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/branch"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/store"
)

// OrphanWorker periodically removes uploaded images that no product
// references anymore. Rejected requests clean up after themselves; the sweep
// covers what a crash between an asset write and a snapshot save leaves
// behind.
type OrphanWorker struct {
	registry *branch.Registry
	store    store.Store
	assets   *assets.Manager
	interval time.Duration
	minAge   time.Duration
}

// NewOrphanWorker constructs an OrphanWorker.
func NewOrphanWorker(registry *branch.Registry, st store.Store, am *assets.Manager, interval, minAge time.Duration) *OrphanWorker {
	return &OrphanWorker{
		registry: registry,
		store:    st,
		assets:   am,
		interval: interval,
		minAge:   minAge,
	}
}

// Start begins the periodic sweep loop and listens for context cancellation.
func (w *OrphanWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("min_age", w.minAge).Msg("Starting orphan sweep worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Orphan sweep worker stopped")
			return
		}
	}
}

func (w *OrphanWorker) run(ctx context.Context) {
	start := time.Now()
	removed := 0

	for _, b := range w.registry.All() {
		if ctx.Err() != nil {
			return
		}

		products, err := w.store.Load(b)
		if err != nil {
			log.Error().Err(err).Str("sucursal", b).Msg("Orphan sweep failed to load catalog")
			continue
		}
		referenced := make(map[string]struct{}, len(products))
		for _, p := range products {
			referenced[p.Img] = struct{}{}
		}

		entries, err := os.ReadDir(filepath.Join(w.assets.Root(), b))
		if err != nil {
			// No uploads directory yet for this branch.
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ref := assets.PublicPrefix + b + "/" + e.Name()
			if _, ok := referenced[ref]; ok {
				continue
			}
			info, err := e.Info()
			if err != nil || time.Since(info.ModTime()) < w.minAge {
				continue
			}
			status := w.assets.Delete(ref)
			if status == assets.Deleted {
				removed++
			}
			log.Debug().Str("asset", ref).Stringer("status", status).Msg("Unreferenced asset swept")
		}
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Dur("duration", time.Since(start)).Msg("Orphan sweep completed")
	}
}
