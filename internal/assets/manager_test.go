package assets

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

func TestManagerStore(t *testing.T) {
	t.Run("WritesUnderBranchDirWithGeneratedName", func(t *testing.T) {
		root := t.TempDir()
		m, err := New(root)
		require.NoError(t, err)

		ref, err := m.Store("central", []byte("img-bytes"), "gafas.png")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(ref, "/uploads/central/"), "ref: %s", ref)

		name := strings.TrimPrefix(ref, "/uploads/central/")
		require.Regexp(t, regexp.MustCompile(`^\d+-[0-9a-f]{8}\.png$`), name)

		data, err := os.ReadFile(filepath.Join(root, "central", name))
		require.NoError(t, err)
		require.Equal(t, []byte("img-bytes"), data)
	})

	t.Run("OriginalNameNeverBecomesAPathComponent", func(t *testing.T) {
		root := t.TempDir()
		m, err := New(root)
		require.NoError(t, err)

		ref, err := m.Store("central", []byte("x"), "../../etc/passwd.png")
		require.NoError(t, err)

		path, err := m.Resolve(ref)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(path, filepath.Join(root, "central")), "path: %s", path)
	})

	t.Run("MissingExtension_DefaultsToJpg", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		ref, err := m.Store("central", []byte("x"), "photo")
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(ref, ".jpg"), "ref: %s", ref)
	})

	t.Run("SuspiciousExtension_DefaultsToJpg", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		ref, err := m.Store("central", []byte("x"), "photo.p/ng")
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(ref, ".jpg"), "ref: %s", ref)
	})

	t.Run("UppercaseExtension_Folds", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		ref, err := m.Store("central", []byte("x"), "FOTO.JPEG")
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(ref, ".jpeg"), "ref: %s", ref)
	})

	t.Run("GeneratedNamesAreUnique", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		seen := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			ref, err := m.Store("central", []byte("x"), "a.jpg")
			require.NoError(t, err)
			_, dup := seen[ref]
			require.False(t, dup, "duplicate ref: %s", ref)
			seen[ref] = struct{}{}
		}
	})
}

func TestManagerDelete(t *testing.T) {
	t.Run("ExistingFile_Deleted", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		ref, err := m.Store("central", []byte("x"), "a.jpg")
		require.NoError(t, err)

		require.Equal(t, Deleted, m.Delete(ref))

		path, err := m.Resolve(ref)
		require.NoError(t, err)
		_, err = os.Stat(path)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("MissingFile_NotFound", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		require.Equal(t, NotFound, m.Delete("/uploads/central/1700000000000-deadbeef.jpg"))
	})

	t.Run("UnresolvableRef_Failed", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		require.Equal(t, Failed, m.Delete("https://cdn.example.com/a.jpg"))
		require.Equal(t, Failed, m.Delete("/uploads/../secrets.txt"))
	})

	t.Run("SecondDelete_NotFound", func(t *testing.T) {
		m, err := New(t.TempDir())
		require.NoError(t, err)

		ref, err := m.Store("central", []byte("x"), "a.jpg")
		require.NoError(t, err)

		require.Equal(t, Deleted, m.Delete(ref))
		require.Equal(t, NotFound, m.Delete(ref))
	})
}

func TestManagerResolve(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	t.Run("RejectsRefsOutsideUploads", func(t *testing.T) {
		_, err := m.Resolve("/etc/passwd")
		require.ErrorIs(t, err, utils.ErrValidation)

		_, err = m.Resolve("uploads/central/a.jpg")
		require.ErrorIs(t, err, utils.ErrValidation)

		_, err = m.Resolve("")
		require.ErrorIs(t, err, utils.ErrValidation)
	})

	t.Run("RejectsEscapes", func(t *testing.T) {
		_, err := m.Resolve("/uploads/../../../etc/passwd")
		require.ErrorIs(t, err, utils.ErrValidation)

		_, err = m.Resolve("/uploads/..")
		require.ErrorIs(t, err, utils.ErrValidation)
	})

	t.Run("MapsRefToPathInsideRoot", func(t *testing.T) {
		path, err := m.Resolve("/uploads/central/1700000000000-deadbeef.jpg")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(m.Root(), "central", "1700000000000-deadbeef.jpg"), path)
	})
}

func TestDeleteStatusString(t *testing.T) {
	require.Equal(t, "deleted", Deleted.String())
	require.Equal(t, "not_found", NotFound.String())
	require.Equal(t, "failed", Failed.String())
}
