package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelPathAndUnder(t *testing.T) {
	assert.Equal(t, "/uploads/1700000000000.pdf", RelPath(KindWorksheet, "1700000000000.pdf"))
	assert.Equal(t, "/uploads/age-logos/age_3_1.png", RelPath(KindAgeLogo, "age_3_1.png"))

	assert.True(t, Under(KindAgeLogo, "/uploads/age-logos/age_3_1.png"))
	assert.False(t, Under(KindAgeLogo, "/uploads/category-icons/cat_1_1.png"))
	assert.False(t, Under(KindAgeLogo, "https://cdn.example.com/uploads/age-logos/x.png"))
	assert.True(t, Under(KindWorksheet, "/uploads/1.pdf"))
	assert.False(t, Under(KindWorksheet, "/uploads/age-logos/x.png"))
}

func TestKeyRejectsTraversal(t *testing.T) {
	for _, rel := range []string{"/uploads/", "/uploads/../etc/passwd", "/uploads/a/../../b", "/static/x.png", "uploads/x.png"} {
		_, err := Key(rel)
		assert.ErrorIs(t, err, ErrInvalidPath, rel)
	}

	key, err := Key("/uploads/category-icons/cat_1_2.png")
	require.NoError(t, err)
	assert.Equal(t, "category-icons/cat_1_2.png", key)
}

func TestLocalPutIsExclusive(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")

	store, err := NewLocal(root)
	require.NoError(t, err)

	rel := RelPath(KindAgeCateCover, "cate_2_100.jpg")
	require.NoError(t, store.Put(ctx, rel, strings.NewReader("first"), 5, "image/jpeg"))

	// 子目录按需创建
	_, err = os.Stat(filepath.Join(root, "age-cate-covers"))
	require.NoError(t, err)

	err = store.Put(ctx, rel, strings.NewReader("second"), 6, "image/jpeg")
	assert.True(t, errors.Is(err, ErrExists))

	rc, info, err := store.Open(ctx, rel)
	require.NoError(t, err)

	body, _ := io.ReadAll(rc)
	_ = rc.Close()

	assert.Equal(t, "first", string(body))
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.EqualValues(t, 5, info.Size)
}

func TestLocalWalkAndRemove(t *testing.T) {
	ctx := context.Background()

	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	rels := []string{
		RelPath(KindWorksheet, "1.pdf"),
		RelPath(KindAgeLogo, "age_1_1.png"),
		RelPath(KindCategoryIcon, "cat_1_1.png"),
	}
	for _, rel := range rels {
		require.NoError(t, store.Put(ctx, rel, strings.NewReader("x"), 1, ""))
	}

	var seen []string

	require.NoError(t, store.Walk(ctx, func(i Info) error {
		seen = append(seen, i.Path)
		return nil
	}))

	sort.Strings(seen)
	sort.Strings(rels)
	assert.Equal(t, rels, seen)

	require.NoError(t, store.Remove(ctx, rels[0]))
	require.NoError(t, store.Remove(ctx, rels[0]), "removing a missing asset is not an error")

	_, _, err = store.Open(ctx, rels[0])
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.HealthCheck(ctx))
}
