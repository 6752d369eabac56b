package service

import (
	"strings"

	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

// AbsoluteURL 把存储的相对路径补全为 origin+path.
// 空值保持为空；已是 http(s) 地址的原样返回，因此重复调用结果不变.
func AbsoluteURL(origin, stored string) string {
	if stored == "" || isAbsolute(stored) || origin == "" {
		return stored
	}

	return origin + stored
}

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// CleanURL 去掉主机部分，把 http://host/uploads/x 还原为 /uploads/x.
// 不含 /uploads/ 的值原样返回.
func CleanURL(u string) string {
	if u == "" {
		return ""
	}

	if i := strings.Index(u, assets.URLPrefix); i >= 0 {
		return u[i:]
	}

	return u
}

func deref(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}

// WorksheetView 练习题行到对外结构的映射.
func WorksheetView(origin string, w *model.Worksheet) types.WorksheetView {
	return types.WorksheetView{
		ID:        w.ID,
		Title:     w.Title,
		AgeRange:  w.AgeRange,
		Category:  w.Category,
		ImageURL:  AbsoluteURL(origin, w.ImageURL),
		PDFURL:    AbsoluteURL(origin, w.PDFURL),
		CreatedAt: w.CreatedAt,
	}
}

// AgeGroupView 年龄段到对外结构的映射.
func AgeGroupView(origin string, g *model.AgeGroup) types.AgeGroupView {
	return types.AgeGroupView{
		ID:           g.ID,
		AgeValue:     g.AgeValue,
		Label:        g.Label,
		Desc:         g.Description,
		Color:        g.Color,
		Icon:         g.IconName,
		LogoURL:      AbsoluteURL(origin, deref(g.LogoURL)),
		CateCoverURL: AbsoluteURL(origin, deref(g.CateCoverURL)),
		SortOrder:    g.SortOrder,
	}
}

// CategoryView 分类到对外结构的映射.
func CategoryView(origin string, c *model.Category) types.CategoryView {
	return types.CategoryView{
		ID:        c.ID,
		Name:      c.Name,
		AgeGroup:  c.AgeGroup,
		SortOrder: c.SortOrder,
		IconURL:   AbsoluteURL(origin, c.IconURL),
	}
}

// UserView 用户到对外结构的映射，不含密码.
func UserView(u *model.User) *types.UserView {
	return &types.UserView{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}
