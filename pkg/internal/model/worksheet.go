package model

import "time"

// Worksheet 练习题记录，一行对应一个分类.
// AgeRange 为逗号拼接的年龄段标签，按选择顺序保存，允许重复.
type Worksheet struct {
	ID        uint      `gorm:"primaryKey"                json:"id"`
	Title     string    `gorm:"size:255;not null"         json:"title"`
	AgeRange  string    `gorm:"size:255;index"            json:"age_range"`
	Category  string    `gorm:"size:255;index"            json:"category"`
	ImageURL  string    `gorm:"column:image_url;size:512" json:"image_url"`
	PDFURL    string    `gorm:"column:pdf_url;size:512"   json:"pdf_url"`
	CreatedAt time.Time `gorm:"index"                     json:"created_at"`
}

// TableName 与历史库表名保持一致.
func (Worksheet) TableName() string { return "worksheets" }
