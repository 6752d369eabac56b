package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/worksheethub/pkg/cache"
	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/kv"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

func TestCategoryNameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registry()

	id, err := reg.CreateCategory(ctx, types.CategoryRequest{Name: " Math ", AgeGroup: "3-4", SortOrder: 2})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = reg.CreateCategory(ctx, types.CategoryRequest{Name: "Math", AgeGroup: "5-6"})
	require.ErrorIs(t, err, ErrConflict)

	list, err := reg.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Math", list[0].Name)
	assert.Equal(t, "3-4", list[0].AgeGroup)
	assert.Equal(t, 2, list[0].SortOrder)

	_, err = reg.CreateCategory(ctx, types.CategoryRequest{Name: "  "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCategoriesOrderedByGroupThenSort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registry()

	for _, c := range []types.CategoryRequest{
		{Name: "B", AgeGroup: "5-6", SortOrder: 0},
		{Name: "C", AgeGroup: "3-4", SortOrder: 2},
		{Name: "A", AgeGroup: "3-4", SortOrder: 1},
	} {
		_, err := reg.CreateCategory(ctx, c)
		require.NoError(t, err)
	}

	list, err := reg.ListCategories(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(list))
	for _, c := range list {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{"A", "C", "B"}, names)
}

func TestDeleteCategoryKeepsWorksheets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registry()

	id, err := reg.CreateCategory(ctx, types.CategoryRequest{Name: "Math", AgeGroup: "3-4"})
	require.NoError(t, err)

	_, err = f.worksheets().Create(ctx, types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"},
		WorksheetFiles{})
	require.NoError(t, err)

	require.NoError(t, reg.DeleteCategory(ctx, id))
	require.ErrorIs(t, reg.DeleteCategory(ctx, id), ErrNotFound)

	cats, err := reg.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	sheets, err := f.worksheets().List(ctx, types.WorksheetFilter{})
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Math", sheets[0].Category)
}

func TestAgeGroupNormalisation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registry()

	id, err := reg.CreateAgeGroup(ctx, types.AgeGroupRequest{Label: "เตรียมป1", AgeValue: "  ", SortOrder: 3})
	require.NoError(t, err)

	g, err := reg.GetAgeGroup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "เตรียมป1", g.AgeValue)
	assert.Equal(t, 3, g.SortOrder)
	assert.Empty(t, g.LogoURL)
	assert.Empty(t, g.CateCoverURL)

	require.NoError(t, reg.UpdateAgeGroup(ctx, id, types.AgeGroupRequest{
		AgeValue: "6-7", Label: "Grade 1", Desc: "first grade", Color: "#ffcc00", Icon: "star",
	}))

	g, err = reg.GetAgeGroup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "6-7", g.AgeValue)
	assert.Equal(t, "first grade", g.Desc)
	assert.Equal(t, "#ffcc00", g.Color)
	assert.Equal(t, "star", g.Icon)
	assert.Equal(t, 0, g.SortOrder)

	_, err = reg.GetAgeGroup(ctx, id+1)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, reg.UpdateAgeGroup(ctx, id+1, types.AgeGroupRequest{Label: "x"}), ErrNotFound)

	require.NoError(t, reg.DeleteAgeGroup(ctx, id))
	require.ErrorIs(t, reg.DeleteAgeGroup(ctx, id), ErrNotFound)
}

func TestAgeGroupsOrderedBySortThenID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registry()

	for _, r := range []types.AgeGroupRequest{
		{Label: "late", SortOrder: 2},
		{Label: "first", SortOrder: 1},
		{Label: "second", SortOrder: 1},
	} {
		_, err := reg.CreateAgeGroup(ctx, r)
		require.NoError(t, err)
	}

	list, err := reg.ListAgeGroups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Label)
	assert.Equal(t, "second", list[1].Label)
	assert.Equal(t, "late", list[2].Label)
}

func TestReplaceLogoRemovesPreviousFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registry()

	id, err := reg.CreateAgeGroup(ctx, types.AgeGroupRequest{Label: "3-4"})
	require.NoError(t, err)

	f.fixedClock(time.UnixMilli(1000))
	first, err := reg.SetAgeGroupLogo(ctx, id, NewUpload("Logo.PNG", "image/png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/age-logos/age_1_1000.png", first)

	f.fixedClock(time.UnixMilli(2000))
	second, err := reg.SetAgeGroupLogo(ctx, id, NewUpload("logo.png", "", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/age-logos/age_1_2000.png", second)

	assert.Equal(t, []string{second}, f.stored(t))

	g, err := reg.GetAgeGroup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testOrigin+second, g.LogoURL)
}

func TestReplaceKeepsForeignPreviousFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.registry().CreateCategory(ctx, types.CategoryRequest{Name: "Math"})
	require.NoError(t, err)

	// 旧图标指向练习题目录，不属于图标目录，替换时不删除
	_, err = f.worksheets().Create(ctx, types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"},
		WorksheetFiles{Image: NewUpload("a.png", "image/png", pngBytes)})
	require.NoError(t, err)

	shared := f.rows(t)[0].ImageURL
	require.NoError(t, f.mgr.DB.Model(&model.Category{}).Where("id = ?", id).Update("icon_url", shared).Error)

	icon, err := f.registry().SetCategoryIcon(ctx, id, NewUpload("i.png", "image/png", pngBytes))
	require.NoError(t, err)
	assert.Regexp(t, `^/uploads/category-icons/cat_\d+_\d+\.png$`, icon)
	assert.ElementsMatch(t, []string{shared, icon}, f.stored(t))
}

func TestReplaceAssetOnMissingEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry().SetAgeGroupCover(ctx, 99, NewUpload("c.jpg", "image/jpeg", pngBytes))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.stored(t))

	_, err = f.registry().SetCategoryIcon(ctx, 99, NewUpload("i.pdf", "application/pdf", pdfBytes))
	require.ErrorIs(t, err, ErrValidation)
}

func TestIconSizeCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.registry().CreateCategory(ctx, types.CategoryRequest{Name: "Math"})
	require.NoError(t, err)

	big := make([]byte, f.cfg.Upload.MaxIconBytes+1)
	copy(big, pngBytes)

	_, err = f.registry().SetCategoryIcon(ctx, id, NewUpload("i.png", "image/png", big))
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.stored(t))
}

func TestClearCover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registry()

	id, err := reg.CreateAgeGroup(ctx, types.AgeGroupRequest{Label: "3-4"})
	require.NoError(t, err)

	_, err = reg.SetAgeGroupCover(ctx, id, NewUpload("c.png", "image/png", pngBytes))
	require.NoError(t, err)
	require.Len(t, f.stored(t), 1)

	require.NoError(t, reg.ClearAgeGroupCover(ctx, id))
	assert.Empty(t, f.stored(t))

	g, err := reg.GetAgeGroup(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, g.CateCoverURL)

	require.ErrorIs(t, reg.ClearAgeGroupCover(ctx, id+1), ErrNotFound)
}

func TestCategoryNamesCacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	require.NoError(t, err)
	f.svc.registry = cache.NewCache(store, registryCachePrefix)
	f.svc.registryTTL = time.Minute

	names, err := f.svc.categoryNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = f.registry().CreateCategory(ctx, types.CategoryRequest{Name: "Math"})
	require.NoError(t, err)

	names, err = f.svc.categoryNames(ctx)
	require.NoError(t, err)
	assert.True(t, names["Math"])
}
