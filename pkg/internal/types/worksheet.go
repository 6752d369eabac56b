package types

import "time"

// WorksheetView 对外的练习题结构，URL 已补全为绝对地址.
type WorksheetView struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	AgeRange  string    `json:"ageRange"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"imageUrl"`
	PDFURL    string    `json:"pdfUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateWorksheetForm 单个上传的表单字段，图片与 PDF 通过 multipart 文件传入.
type CreateWorksheetForm struct {
	Title    string `form:"title"    json:"title"    rule:"notblank"`
	AgeRange string `form:"ageRange" json:"ageRange" rule:"csvnotblank"` // 逗号分隔的年龄段
	Category string `form:"category" json:"category" rule:"csvnotblank"` // 逗号分隔的分类，每个分类生成一行
}

// UpdateWorksheetForm 编辑表单. 未上传新文件时使用 existing* 字段（可为绝对地址）.
type UpdateWorksheetForm struct {
	Title         string `form:"title"         json:"title"         rule:"notblank"`
	AgeRange      string `form:"ageRange"      json:"ageRange"      rule:"csvnotblank"`
	Category      string `form:"category"      json:"category"      rule:"notblank"`
	ExistingImage string `form:"existingImage" json:"existingImage"`
	ExistingPDF   string `form:"existingPdf"   json:"existingPdf"`
}

// BulkWorksheetForm 批量上传表单，files[] 与可选 cover 通过 multipart 传入.
type BulkWorksheetForm struct {
	AgeRange string `form:"ageRange" json:"ageRange" rule:"csvnotblank"`
	Category string `form:"category" json:"category" rule:"csvnotblank"`
}

// WorksheetFilter 列表过滤. Age 按年龄段字符串包含匹配，Category 精确匹配其一.
type WorksheetFilter struct {
	Age        string   `form:"age"`
	Categories []string `form:"category"`
}

// FanOutResult 扇出写入结果.
type FanOutResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	IDs     []uint `json:"ids"`
}
