package model

// Category 学科分类，归属于单个年龄段.
type Category struct {
	ID        uint   `gorm:"primaryKey"                        json:"id"`
	Name      string `gorm:"size:255;not null;uniqueIndex"     json:"name"`
	AgeGroup  string `gorm:"size:255;index:idx_category_order" json:"age_group"`
	SortOrder int    `gorm:"index:idx_category_order"          json:"sort_order"`
	IconURL   string `gorm:"column:icon_url;size:512"          json:"icon_url"`
}

func (Category) TableName() string { return "categories" }

// AgeGroup 年龄段标签. 展示字段（颜色、图标名、描述）不做解释，原样保存.
type AgeGroup struct {
	ID           uint    `gorm:"primaryKey"                    json:"id"`
	AgeValue     string  `gorm:"size:255"                      json:"age_value"`
	Label        string  `gorm:"size:255"                      json:"label"`
	Description  string  `gorm:"type:text"                     json:"description"`
	Color        string  `gorm:"size:64"                       json:"color"`
	IconName     string  `gorm:"size:128"                      json:"icon_name"`
	LogoURL      *string `gorm:"column:logo_url;size:512"      json:"logo_url"`
	CateCoverURL *string `gorm:"column:cate_cover_url;size:512" json:"cate_cover_url"`
	SortOrder    int     `gorm:"index"                         json:"sort_order"`
}

func (AgeGroup) TableName() string { return "age_groups" }
