// Package model 定义目录服务的持久化模型，表名与列名沿用历史 MySQL 库 kids_db.
package model

// All 返回需要自动迁移的全部模型.
func All() []any {
	return []any{
		&Worksheet{},
		&Category{},
		&AgeGroup{},
		&User{},
	}
}
