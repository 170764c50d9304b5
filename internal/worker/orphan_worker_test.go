package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/assets"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/branch"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/models"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/store"
)

func newSweepFixture(t *testing.T) (*OrphanWorker, store.Store, *assets.Manager) {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	am, err := assets.New(t.TempDir())
	require.NoError(t, err)

	registry := branch.New([]string{"central", "norte"})
	w := NewOrphanWorker(registry, st, am, time.Hour, time.Minute)
	return w, st, am
}

func storeAsset(t *testing.T, am *assets.Manager, branchName string) string {
	t.Helper()
	ref, err := am.Store(branchName, []byte("fake-image-bytes"), "foto.jpg")
	require.NoError(t, err)
	return ref
}

// age rewinds the mtime of a stored asset so it passes the minimum age gate.
func age(t *testing.T, am *assets.Manager, ref string) {
	t.Helper()
	path, err := am.Resolve(ref)
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
}

func assetExists(t *testing.T, am *assets.Manager, ref string) bool {
	t.Helper()
	path, err := am.Resolve(ref)
	require.NoError(t, err)
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestOrphanSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesAgedUnreferencedAssets", func(t *testing.T) {
		w, _, am := newSweepFixture(t)

		orphan := storeAsset(t, am, "central")
		age(t, am, orphan)

		w.run(ctx)
		require.False(t, assetExists(t, am, orphan))
	})

	t.Run("KeepsReferencedAssets", func(t *testing.T) {
		w, st, am := newSweepFixture(t)

		ref := storeAsset(t, am, "central")
		age(t, am, ref)
		require.NoError(t, st.Save("central", []models.Product{{
			ID: "p1", Codigo: "A1", Nombre: "Gafas", Precio: "1", Categoria: "dama", Img: ref,
		}}))

		w.run(ctx)
		require.True(t, assetExists(t, am, ref))
	})

	t.Run("KeepsRecentUnreferencedAssets", func(t *testing.T) {
		w, _, am := newSweepFixture(t)

		fresh := storeAsset(t, am, "central")

		w.run(ctx)
		require.True(t, assetExists(t, am, fresh))
	})

	t.Run("SweepsEveryBranchIndependently", func(t *testing.T) {
		w, st, am := newSweepFixture(t)

		kept := storeAsset(t, am, "central")
		age(t, am, kept)
		require.NoError(t, st.Save("central", []models.Product{{
			ID: "p1", Codigo: "A1", Nombre: "Gafas", Precio: "1", Categoria: "dama", Img: kept,
		}}))

		swept := storeAsset(t, am, "norte")
		age(t, am, swept)

		w.run(ctx)
		require.True(t, assetExists(t, am, kept))
		require.False(t, assetExists(t, am, swept))
	})

	t.Run("MissingBranchDirectory_IsSkipped", func(t *testing.T) {
		w, _, _ := newSweepFixture(t)
		w.run(ctx)
	})

	t.Run("CancelledContext_StopsEarly", func(t *testing.T) {
		w, _, am := newSweepFixture(t)

		orphan := storeAsset(t, am, "central")
		age(t, am, orphan)

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		w.run(cancelled)
		require.True(t, assetExists(t, am, orphan))
	})

	t.Run("StartHonorsCancellation", func(t *testing.T) {
		w, _, _ := newSweepFixture(t)

		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			w.Start(runCtx)
			close(done)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop after context cancellation")
		}
	})
}
