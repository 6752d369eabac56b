package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/worksheethub/pkg/cache"
	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/internal/storage/db"
	"github.com/yeisme/worksheethub/pkg/internal/types"
	"github.com/yeisme/worksheethub/pkg/queue"
)

const categoryNamesKey = "category-names"

// RegistryService 年龄段与分类的维护.
type RegistryService struct{ *CatalogService }

func NewRegistryService(c context.Context) *RegistryService {
	return &RegistryService{NewCatalogService(c)}
}

// ListAgeGroups 按 sort_order、id 排序.
func (s *RegistryService) ListAgeGroups(ctx context.Context) ([]types.AgeGroupView, error) {
	var rows []model.AgeGroup
	if err := s.dbClient.WithContext(ctx).Order("sort_order ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list age groups: %w", err)
	}

	out := make([]types.AgeGroupView, 0, len(rows))
	for i := range rows {
		out = append(out, AgeGroupView(s.origin, &rows[i]))
	}

	return out, nil
}

// GetAgeGroup 按 id 读取.
func (s *RegistryService) GetAgeGroup(ctx context.Context, id uint) (types.AgeGroupView, error) {
	row, err := s.loadAgeGroup(ctx, id)
	if err != nil {
		return types.AgeGroupView{}, err
	}

	return AgeGroupView(s.origin, row), nil
}

func (s *RegistryService) loadAgeGroup(ctx context.Context, id uint) (*model.AgeGroup, error) {
	var row model.AgeGroup
	if err := s.dbClient.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("age group %d", id)
		}

		return nil, fmt.Errorf("load age group: %w", err)
	}

	return &row, nil
}

// ageValueOf ageValue 为空时取 label.
func ageValueOf(req types.AgeGroupRequest) string {
	if v := strings.TrimSpace(req.AgeValue); v != "" {
		return v
	}

	return req.Label
}

// ageGroupFields 展示字段原样保存.
func ageGroupFields(req types.AgeGroupRequest) map[string]any {
	return map[string]any{
		"age_value":   ageValueOf(req),
		"label":       req.Label,
		"description": req.Desc,
		"color":       req.Color,
		"icon_name":   req.Icon,
		"sort_order":  int(req.SortOrder),
	}
}

// CreateAgeGroup 新建年龄段，返回 id.
func (s *RegistryService) CreateAgeGroup(ctx context.Context, req types.AgeGroupRequest) (uint, error) {
	row := model.AgeGroup{
		AgeValue:    ageValueOf(req),
		Label:       req.Label,
		Description: req.Desc,
		Color:       req.Color,
		IconName:    req.Icon,
		SortOrder:   int(req.SortOrder),
	}

	if err := s.dbClient.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("create age group: %w", err)
	}

	return row.ID, nil
}

// UpdateAgeGroup 覆盖年龄段的文本字段，logo 与封面不变.
func (s *RegistryService) UpdateAgeGroup(ctx context.Context, id uint, req types.AgeGroupRequest) error {
	row, err := s.loadAgeGroup(ctx, id)
	if err != nil {
		return err
	}

	if err := s.dbClient.WithContext(ctx).Model(row).Updates(ageGroupFields(req)).Error; err != nil {
		return fmt.Errorf("update age group: %w", err)
	}

	return nil
}

// DeleteAgeGroup 删除年龄段，不影响分类与练习题.
func (s *RegistryService) DeleteAgeGroup(ctx context.Context, id uint) error {
	res := s.dbClient.WithContext(ctx).Delete(&model.AgeGroup{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete age group: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return notFound("age group %d", id)
	}

	return nil
}

// SetAgeGroupLogo 替换年龄段 logo.
func (s *RegistryService) SetAgeGroupLogo(ctx context.Context, id uint, u *Upload) (string, error) {
	return s.replaceAsset(ctx, entityAsset{
		model: &model.AgeGroup{}, entity: "age_group", what: "age group",
		column: "logo_url", kind: assets.KindAgeLogo, field: "logo",
	}, id, u)
}

// SetAgeGroupCover 替换年龄段的分类页封面.
func (s *RegistryService) SetAgeGroupCover(ctx context.Context, id uint, u *Upload) (string, error) {
	return s.replaceAsset(ctx, entityAsset{
		model: &model.AgeGroup{}, entity: "age_group", what: "age group",
		column: "cate_cover_url", kind: assets.KindAgeCateCover, field: "cover",
	}, id, u)
}

// ClearAgeGroupCover 清空封面并删除旧文件.
func (s *RegistryService) ClearAgeGroupCover(ctx context.Context, id uint) error {
	row, err := s.loadAgeGroup(ctx, id)
	if err != nil {
		return err
	}

	// Update 会把 nil 回写到 row，先记下旧路径
	old := deref(row.CateCoverURL)

	if err := s.dbClient.WithContext(ctx).Model(row).Update("cate_cover_url", nil).Error; err != nil {
		return fmt.Errorf("clear cover: %w", err)
	}

	s.removeOwned(ctx, assets.KindAgeCateCover, old)

	return nil
}

// ListCategories 按 age_group、sort_order、id 排序.
func (s *RegistryService) ListCategories(ctx context.Context) ([]types.CategoryView, error) {
	var rows []model.Category

	err := s.dbClient.WithContext(ctx).
		Order("age_group ASC").Order("sort_order ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]types.CategoryView, 0, len(rows))
	for i := range rows {
		out = append(out, CategoryView(s.origin, &rows[i]))
	}

	return out, nil
}

// CreateCategory 新建分类，名称重复时返回 ErrConflict.
func (s *RegistryService) CreateCategory(ctx context.Context, req types.CategoryRequest) (uint, error) {
	if err := validate(&req); err != nil {
		return 0, err
	}

	row := model.Category{
		Name:      strings.TrimSpace(req.Name),
		AgeGroup:  strings.TrimSpace(req.AgeGroup),
		SortOrder: int(req.SortOrder),
	}

	if err := s.dbClient.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return 0, fmt.Errorf("category %q: %w", row.Name, ErrConflict)
		}

		return 0, fmt.Errorf("create category: %w", err)
	}

	s.forgetCategoryNames(ctx)

	return row.ID, nil
}

// DeleteCategory 删除分类. 引用它的练习题保持不变.
func (s *RegistryService) DeleteCategory(ctx context.Context, id uint) error {
	var row model.Category
	if err := s.dbClient.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("category %d", id)
		}

		return fmt.Errorf("load category: %w", err)
	}

	if err := s.dbClient.WithContext(ctx).Delete(&row).Error; err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.forgetCategoryNames(ctx)

	publish(ctx, s.CatalogService, s.events.Registry.CategoryDeleted, queue.TopicCategoryDeleted,
		queue.CategoryDeletedPayload{ID: row.ID, Name: row.Name})

	return nil
}

// SetCategoryIcon 替换分类图标.
func (s *RegistryService) SetCategoryIcon(ctx context.Context, id uint, u *Upload) (string, error) {
	return s.replaceAsset(ctx, entityAsset{
		model: &model.Category{}, entity: "category", what: "category",
		column: "icon_url", kind: assets.KindCategoryIcon, field: "icon",
	}, id, u)
}

// entityAsset 描述实体上的一个资源列.
type entityAsset struct {
	model  any
	entity string
	what   string
	column string
	kind   assets.Kind
	field  string
}

// replaceAsset 校验并写入新文件，实体不存在时删除刚写入的文件.
// 旧文件仅在位于同类目录下时删除.
func (s *CatalogService) replaceAsset(ctx context.Context, ea entityAsset, id uint, u *Upload) (string, error) {
	c, err := s.check(u, s.policy(ea.kind, ea.field))
	if err != nil {
		return "", err
	}

	rel, err := s.write(ctx, c, id)
	if err != nil {
		return "", err
	}

	var old struct{ Value *string }

	res := s.dbClient.WithContext(ctx).Model(ea.model).
		Select(ea.column+" AS value").Where("id = ?", id).Limit(1).Scan(&old)
	if res.Error != nil {
		s.discard(ctx, rel)
		return "", fmt.Errorf("load %s: %w", ea.what, res.Error)
	}

	if res.RowsAffected == 0 {
		s.discard(ctx, rel)
		return "", notFound("%s %d", ea.what, id)
	}

	if err := s.dbClient.WithContext(ctx).Model(ea.model).Where("id = ?", id).Update(ea.column, rel).Error; err != nil {
		s.discard(ctx, rel)
		return "", fmt.Errorf("update %s: %w", ea.what, err)
	}

	previous := deref(old.Value)
	removed := s.removeOwned(ctx, ea.kind, previous)

	s.logger.Info().Str("entity", ea.entity).Uint("id", id).Str("path", rel).Msg("asset replaced")

	publish(ctx, s, s.events.Asset.Replaced, queue.TopicAssetReplaced, queue.AssetReplacedPayload{
		Entity:   ea.entity,
		EntityID: id,
		Field:    ea.column,
		Asset:    queue.AssetRef{Path: rel, Kind: string(ea.kind), Size: c.Size, ContentType: c.mimeType},
		Previous: previous,
		Removed:  removed,
	})

	return rel, nil
}

// removeOwned 删除位于该种类目录下的旧文件，返回是否执行了删除.
func (s *CatalogService) removeOwned(ctx context.Context, kind assets.Kind, old string) bool {
	old = CleanURL(old)
	if old == "" || !assets.Under(kind, old) {
		return false
	}

	if err := s.store.Remove(ctx, old); err != nil {
		s.logger.Warn().Err(err).Str("path", old).Msg("remove previous asset failed")
		return false
	}

	return true
}

// categoryNames 已登记的分类名集合，启用缓存时走 KV.
func (s *CatalogService) categoryNames(ctx context.Context) (map[string]bool, error) {
	load := func() ([]string, error) {
		var names []string
		err := s.dbClient.WithContext(ctx).Model(&model.Category{}).Pluck("name", &names).Error

		return names, err
	}

	var (
		names []string
		err   error
	)

	if s.registry != nil {
		names, err = cache.GetOrSet(ctx, s.registry, categoryNamesKey, load, s.registryTTL)
	} else {
		names, err = load()
	}

	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	return set, nil
}

func (s *CatalogService) forgetCategoryNames(ctx context.Context) {
	if s.registry == nil {
		return
	}

	if err := s.registry.Delete(ctx, categoryNamesKey); err != nil {
		s.logger.Warn().Err(err).Msg("invalidate category names failed")
	}
}

// warnUnknownCategories 记录未登记的分类名，不拒绝写入.
func (s *CatalogService) warnUnknownCategories(ctx context.Context, cats []string) {
	known, err := s.categoryNames(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load category names failed")
		return
	}

	var unknown []string

	for _, c := range cats {
		if !known[c] {
			unknown = append(unknown, c)
		}
	}

	if len(unknown) > 0 {
		s.logger.Warn().Strs("categories", unknown).Msg("worksheet uses unregistered categories")
	}
}
