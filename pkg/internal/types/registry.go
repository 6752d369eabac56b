package types

// AgeGroupView 年龄段.
type AgeGroupView struct {
	ID           uint   `json:"id"`
	AgeValue     string `json:"ageValue"`
	Label        string `json:"label"`
	Desc         string `json:"desc"`
	Color        string `json:"color"`
	Icon         string `json:"icon"`
	LogoURL      string `json:"logoUrl"`
	CateCoverURL string `json:"cateCoverUrl"`
	SortOrder    int    `json:"sortOrder"`
}

// AgeGroupRequest 新建/更新年龄段. ageValue 为空时取 label.
type AgeGroupRequest struct {
	AgeValue  string     `json:"ageValue"`
	Label     string     `json:"label"`
	Desc      string     `json:"desc"`
	Color     string     `json:"color"`
	Icon      string     `json:"icon"`
	SortOrder LenientInt `json:"sortOrder"`
}

// CategoryView 学科分类.
type CategoryView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AgeGroup  string `json:"ageGroup"`
	SortOrder int    `json:"sortOrder"`
	IconURL   string `json:"iconUrl"`
}

// CategoryRequest 新建分类，字段名沿用历史客户端的 snake_case.
type CategoryRequest struct {
	Name      string     `json:"name"       rule:"notblank"`
	AgeGroup  string     `json:"age_group"`
	SortOrder LenientInt `json:"sort_order"`
}

// AssetResponse 上传 logo/封面/图标后的返回，只填充对应字段.
type AssetResponse struct {
	Message      string `json:"message"`
	LogoURL      string `json:"logoUrl,omitempty"`
	CateCoverURL string `json:"cateCoverUrl,omitempty"`
	IconURL      string `json:"iconUrl,omitempty"`
}
