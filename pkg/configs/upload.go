package configs

import (
	"strings"

	"github.com/spf13/viper"
)

// AssetBackend 资源文件的存放后端.
type AssetBackend string

const (
	AssetBackendLocal AssetBackend = "local"
	AssetBackendS3    AssetBackend = "s3"

	DefaultUploadRoot        = "uploads"
	DefaultMaxIconBytes      = 2 * 1024 * 1024  // 年龄段 logo、分类图标
	DefaultMaxCoverBytes     = 4 * 1024 * 1024  // 年龄段分类封面
	DefaultMaxWorksheetBytes = 20 * 1024 * 1024 // 练习题 PDF 与预览图
	DefaultMaxBulkFiles      = 20
)

// UploadConfig 上传与资源存储配置.
type UploadConfig struct {
	Backend           AssetBackend `mapstructure:"backend"             rule:"oneof=local s3"`
	RootDir           string       `mapstructure:"root_dir"            rule:"required"`
	MaxIconBytes      int64        `mapstructure:"max_icon_bytes"      rule:"min=1"`
	MaxCoverBytes     int64        `mapstructure:"max_cover_bytes"     rule:"min=1"`
	MaxWorksheetBytes int64        `mapstructure:"max_worksheet_bytes" rule:"min=1"`
	MaxBulkFiles      int          `mapstructure:"max_bulk_files"      rule:"min=1"`
	// ImageTypes 图片类资源允许的 MIME 前缀或完整类型.
	ImageTypes []string `mapstructure:"image_types"`
	// DocumentTypes 练习题主体额外允许的 MIME 类型.
	DocumentTypes []string `mapstructure:"document_types"`
	// UniqueSuffix 为 true 时所有生成的文件名都附带 ULID，避免同毫秒冲突.
	UniqueSuffix bool `mapstructure:"unique_suffix"`
}

// AllowsImage 判断 MIME 类型是否属于图片白名单.
func (c *UploadConfig) AllowsImage(mime string) bool {
	return matchMIME(c.ImageTypes, mime)
}

// AllowsDocument 判断 MIME 类型是否属于练习题主体白名单（图片或文档）.
func (c *UploadConfig) AllowsDocument(mime string) bool {
	return matchMIME(c.DocumentTypes, mime) || c.AllowsImage(mime)
}

// matchMIME 支持 "image/*" 形式的前缀匹配.
func matchMIME(allowed []string, mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	for _, a := range allowed {
		a = strings.ToLower(a)
		if prefix, ok := strings.CutSuffix(a, "*"); ok {
			if strings.HasPrefix(mime, prefix) {
				return true
			}

			continue
		}

		if mime == a {
			return true
		}
	}

	return false
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.backend", AssetBackendLocal)
	v.SetDefault("upload.root_dir", DefaultUploadRoot)
	v.SetDefault("upload.max_icon_bytes", DefaultMaxIconBytes)
	v.SetDefault("upload.max_cover_bytes", DefaultMaxCoverBytes)
	v.SetDefault("upload.max_worksheet_bytes", DefaultMaxWorksheetBytes)
	v.SetDefault("upload.max_bulk_files", DefaultMaxBulkFiles)
	v.SetDefault("upload.image_types", []string{"image/*"})
	v.SetDefault("upload.document_types", []string{"application/pdf"})
	v.SetDefault("upload.unique_suffix", false)
}
