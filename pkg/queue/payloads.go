package queue

// AssetRef 资源文件引用.
type AssetRef struct {
	Path        string `json:"path"` // /uploads/...
	Kind        string `json:"kind"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// WorksheetCreatedPayload 一次扇出写入的结果，每个分类一行.
type WorksheetCreatedPayload struct {
	IDs        []uint   `json:"ids"`
	Title      string   `json:"title,omitempty"` // 批量上传时为空
	AgeRange   string   `json:"age_range"`
	Categories []string `json:"categories"`
	Mode       string   `json:"mode"` // single | bulk
	Files      int      `json:"files"`
}

// WorksheetUpdatedPayload 单行编辑.
type WorksheetUpdatedPayload struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	AgeRange string `json:"age_range"`
	Category string `json:"category"`
	ImageURL string `json:"image_url"`
	PDFURL   string `json:"pdf_url"`
}

// WorksheetDeletedPayload 单行删除，文件不随之删除.
type WorksheetDeletedPayload struct {
	ID uint `json:"id"`
}

// AssetStoredPayload 新文件写入.
type AssetStoredPayload struct {
	Asset AssetRef `json:"asset"`
}

// AssetReplacedPayload 实体的 logo/封面/图标被替换.
type AssetReplacedPayload struct {
	Entity   string   `json:"entity"` // age_group | category
	EntityID uint     `json:"entity_id"`
	Field    string   `json:"field"` // logo_url | cate_cover_url | icon_url
	Asset    AssetRef `json:"asset"`
	Previous string   `json:"previous,omitempty"`
	Removed  bool     `json:"removed"` // 旧文件是否已删除
}

// CategoryDeletedPayload 分类被删除.
type CategoryDeletedPayload struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
