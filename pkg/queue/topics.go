package queue

// 主题命名：ws.<域>.<动作>.
const (
	// 练习题.
	TopicWorksheetCreated = "ws.worksheet.created" // 一次扇出写入（单个或批量上传）完成
	TopicWorksheetUpdated = "ws.worksheet.updated" // 单行被编辑
	TopicWorksheetDeleted = "ws.worksheet.deleted" // 单行被删除

	// 资源文件.
	TopicAssetStored   = "ws.asset.stored"   // 新文件写入资源存储
	TopicAssetReplaced = "ws.asset.replaced" // 年龄段 logo/封面或分类图标被替换

	// 注册表.
	TopicCategoryDeleted = "ws.category.deleted" // 分类被删除，已有练习题不受影响
)

// 通配订阅模式（NATS 语义）.
const (
	PatternWorksheetAll = "ws.worksheet.>"
	PatternAssetAll     = "ws.asset.>"
	PatternAll          = "ws.>"
)

// AllTopics 返回所有具体主题，供命令行列出.
func AllTopics() []string {
	return []string{
		TopicWorksheetCreated,
		TopicWorksheetUpdated,
		TopicWorksheetDeleted,
		TopicAssetStored,
		TopicAssetReplaced,
		TopicCategoryDeleted,
	}
}
